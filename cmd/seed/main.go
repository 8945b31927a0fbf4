package main

import (
	"database/sql"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/unilib-br/unilib/config"
)

type seedUser struct {
	name         string
	cpf          string
	birthDate    string
	category     string
	email        string
	registration string
	department   string
}

type seedItem struct {
	code   string
	isbn   string
	title  string
	author string
	cat    string
	copies int
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	users := []seedUser{
		{"Ana Beatriz Souza", "11144477735", "1998-03-14", "student", "ana.souza@example.edu.br", "20230101", "Computer Science"},
		{"Carlos Eduardo Lima", "12345678909", "1975-11-02", "professor", "carlos.lima@example.edu.br", "P-4412", "Mathematics"},
		{"Mariana Ferreira", "52998224725", "1990-07-21", "visitor", "mariana.f@example.com", "", ""},
		{"Paulo Ribeiro", "98765432100", "1985-01-30", "librarian", "paulo.ribeiro@example.edu.br", "L-0031", "Library"},
	}
	for _, u := range users {
		var id string
		err := db.QueryRow(`
			INSERT INTO users (name, cpf, birth_date, category, email, registration, department)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (cpf) DO UPDATE SET name = EXCLUDED.name
			RETURNING id
		`, u.name, u.cpf, u.birthDate, u.category, u.email, u.registration, u.department).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed user %s: %v", u.name, err)
		}
		fmt.Printf("seeded user: id=%s name=%s category=%s\n", id, u.name, u.category)
	}

	items := []seedItem{
		{"LIB-0001", "9780306406157", "Structure and Interpretation of Classic Texts", "H. Abelson", "reference", 4},
		{"LIB-0002", "9780132350884", "Clean Code", "Robert C. Martin", "software", 6},
		{"LIB-0003", "9780201633610", "Design Patterns", "Gamma, Helm, Johnson, Vlissides", "software", 3},
		{"LIB-0004", "", "Anais do Simpósio de Biblioteconomia 2023", "Vários", "proceedings", 1},
	}
	for _, it := range items {
		var id string
		err := db.QueryRow(`
			INSERT INTO catalog_items (code, isbn, title, author, category, total_copies, available_copies, borrowed_copies)
			VALUES ($1, $2, $3, $4, $5, $6, $6, 0)
			ON CONFLICT (code) DO UPDATE SET title = EXCLUDED.title
			RETURNING id
		`, it.code, it.isbn, it.title, it.author, it.cat, it.copies).Scan(&id)
		if err != nil {
			log.Fatalf("failed to seed item %s: %v", it.code, err)
		}
		fmt.Printf("seeded item: id=%s code=%s title=%q\n", id, it.code, it.title)
	}
}
