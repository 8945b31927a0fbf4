package application

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/unilib-br/unilib/internal/domain/entity"
	"github.com/unilib-br/unilib/internal/domain/repository"
	"github.com/unilib-br/unilib/pkg/helpers"
	"github.com/unilib-br/unilib/pkg/validation"
)

// CatalogService manages the collection: titles, copy counts, covers,
// and the search index. The loan engine owns the available/borrowed
// counters; this service only touches them through the recompute on
// quantity edits.
type CatalogService struct {
	Store        repository.Store
	Logger       *logrus.Logger
	GCS          *storage.Client
	GCSBucket    string
	ES           *elasticsearch.Client
	ESItemsIndex string
}

func NewCatalogService(store repository.Store, logger *logrus.Logger, gcs *storage.Client, gcsBucket string, es *elasticsearch.Client, esItemsIndex string) *CatalogService {
	return &CatalogService{
		Store:        store,
		Logger:       logger,
		GCS:          gcs,
		GCSBucket:    gcsBucket,
		ES:           es,
		ESItemsIndex: esItemsIndex,
	}
}

type AddItemInput struct {
	Code        string
	ISBN        string
	Title       string
	Author      string
	Category    string
	TotalCopies int
}

// Add creates a title with all copies available. Duplicate codes are
// rejected; so are duplicate ISBNs when one is provided.
func (s *CatalogService) Add(ctx context.Context, in AddItemInput) (*entity.CatalogItem, error) {
	if in.ISBN != "" && !validation.ValidateISBN(in.ISBN) {
		return nil, ErrInvalidISBN
	}

	if _, err := s.Store.Items().GetByCode(ctx, in.Code); err == nil {
		return nil, ErrCodeRegistered
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail("add item", err, logrus.Fields{"code": in.Code})
	}
	if in.ISBN != "" {
		if _, err := s.Store.Items().GetByISBN(ctx, in.ISBN); err == nil {
			return nil, ErrISBNRegistered
		} else if !errors.Is(err, repository.ErrNotFound) {
			return nil, s.fail("add item", err, logrus.Fields{"code": in.Code})
		}
	}

	item := &entity.CatalogItem{
		ID:              uuid.NewString(),
		Code:            in.Code,
		ISBN:            in.ISBN,
		Title:           in.Title,
		Author:          in.Author,
		Category:        in.Category,
		TotalCopies:     in.TotalCopies,
		AvailableCopies: in.TotalCopies,
		BorrowedCopies:  0,
	}
	if err := s.Store.Items().Create(ctx, item); err != nil {
		return nil, s.fail("add item", err, logrus.Fields{"code": in.Code})
	}

	_ = s.indexItem(ctx, item)
	return item, nil
}

// Query lists catalog items matching the filter.
func (s *CatalogService) Query(ctx context.Context, f repository.ItemFilter) ([]entity.CatalogItem, error) {
	items, err := s.Store.Items().List(ctx, f)
	if err != nil {
		return nil, s.fail("query items", err, nil)
	}
	return items, nil
}

func (s *CatalogService) GetByID(ctx context.Context, id string) (*entity.CatalogItem, error) {
	item, err := s.Store.Items().GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, s.fail("get item", err, logrus.Fields{"item_id": id})
	}
	return item, nil
}

// UpdateQuantity edits the total copy count. The new total may not drop
// below the copies currently on loan; available is recomputed so the
// counter invariant holds.
func (s *CatalogService) UpdateQuantity(ctx context.Context, id string, newTotal int) (*entity.CatalogItem, error) {
	var updated *entity.CatalogItem
	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		item, err := st.Items().GetForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		if newTotal < item.BorrowedCopies {
			return &InvalidQuantityError{NewTotal: newTotal, Borrowed: item.BorrowedCopies}
		}
		item.TotalCopies = newTotal
		item.AvailableCopies = newTotal - item.BorrowedCopies
		if err := st.Items().Update(ctx, item); err != nil {
			return err
		}
		updated = item
		return nil
	})
	if err != nil {
		return nil, s.fail("update quantity", err, logrus.Fields{"item_id": id})
	}

	_ = s.indexItem(ctx, updated)
	return updated, nil
}

// Remove deletes a title, refused while any outstanding loan references
// it. Returned loans are history and never block removal; their rows
// keep the item id after the title is gone. The check and the delete
// share one atomic block with the item row locked, so a loan created
// concurrently cannot slip in between them.
func (s *CatalogService) Remove(ctx context.Context, id string) error {
	err := s.Store.RunAtomically(ctx, func(st repository.Store) error {
		if _, err := st.Items().GetForUpdate(ctx, id); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrItemNotFound
			}
			return err
		}
		active, err := st.Loans().CountActiveByItem(ctx, id)
		if err != nil {
			return err
		}
		if active > 0 {
			return ErrItemHasLoans
		}
		return st.Items().Delete(ctx, id)
	})
	if err != nil {
		return s.fail("remove item", err, logrus.Fields{"item_id": id})
	}
	s.deleteFromIndex(ctx, id)
	return nil
}

// Stats aggregates collection-wide copy counts.
func (s *CatalogService) Stats(ctx context.Context) (*entity.CatalogStats, error) {
	stats, err := s.Store.Items().Stats(ctx)
	if err != nil {
		return nil, s.fail("catalog stats", err, nil)
	}
	return stats, nil
}

// UploadCover stores a cover image in GCS and records its public URL
// on the item.
func (s *CatalogService) UploadCover(ctx context.Context, id string, r io.Reader, filename, contentType string) (string, error) {
	if s.GCS == nil || s.GCSBucket == "" {
		return "", errors.New("gcs not configured")
	}
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := filepath.ToSlash(filepath.Join("covers", item.ID, uuid.NewString()+ext))
	url, err := helpers.UploadObject(ctx, s.GCS, s.GCSBucket, objectPath, contentType, r)
	if err != nil {
		return "", s.fail("upload cover", err, logrus.Fields{"item_id": id})
	}

	item.CoverURL = url
	if err := s.Store.Items().Update(ctx, item); err != nil {
		return "", s.fail("upload cover", err, logrus.Fields{"item_id": id})
	}
	_ = s.indexItem(ctx, item)
	return url, nil
}

// Search performs a multi_match over title, author, and code. Returns
// empty results when Elasticsearch is not configured.
func (s *CatalogService) Search(ctx context.Context, q string, size int) ([]map[string]any, error) {
	if s.ES == nil || s.ESItemsIndex == "" {
		return []map[string]any{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"title^2", "author", "code"},
			},
		},
		"size": size,
	}
	b, _ := json.Marshal(query)

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := s.ES.Search(
		s.ES.Search.WithContext(c),
		s.ES.Search.WithIndex(s.ESItemsIndex),
		s.ES.Search.WithBody(strings.NewReader(string(b))),
	)
	if err != nil {
		return nil, s.fail("search items", err, nil)
	}
	defer func() { _ = res.Body.Close() }()

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string         `json:"_id"`
				Source map[string]any `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, s.fail("search items", err, nil)
	}

	out := make([]map[string]any, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (s *CatalogService) indexItem(ctx context.Context, item *entity.CatalogItem) error {
	if s.ES == nil || s.ESItemsIndex == "" || item == nil {
		return nil
	}
	doc := map[string]any{
		"id":               item.ID,
		"code":             item.Code,
		"isbn":             item.ISBN,
		"title":            item.Title,
		"author":           item.Author,
		"category":         item.Category,
		"available_copies": item.AvailableCopies,
	}
	b, _ := json.Marshal(doc)
	req := esapi.IndexRequest{Index: s.ESItemsIndex, DocumentID: item.ID, Body: strings.NewReader(string(b)), Refresh: "false"}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, s.ES)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("item_id", item.ID).Warn("es index failed")
		}
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && s.Logger != nil {
		s.Logger.WithField("status", res.Status()).WithField("item_id", item.ID).Warn("es index response error")
	}
	return nil
}

func (s *CatalogService) fail(op string, err error, fields logrus.Fields) error {
	if IsDomainError(err) {
		return err
	}
	if s.Logger != nil {
		helpers.LogError(s.Logger, op+" failed", err, fields)
	}
	return ErrInternal
}

func (s *CatalogService) deleteFromIndex(ctx context.Context, id string) {
	if s.ES == nil || s.ESItemsIndex == "" {
		return
	}
	req := esapi.DeleteRequest{Index: s.ESItemsIndex, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if res, err := req.Do(c, s.ES); err == nil {
		_ = res.Body.Close()
	} else if s.Logger != nil {
		s.Logger.WithError(err).WithField("item_id", id).Warn("es delete failed")
	}
}
