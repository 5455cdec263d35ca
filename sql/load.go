package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed containers.sql
var containersSQL string

//go:embed pages.sql
var pagesSQL string

//go:embed inscriptions.sql
var inscriptionsSQL string

// Function lists for verification
var ContainersFunctions = []string{
	"init_containers",
	"upsert_container",
	"select_container",
	"select_container_by_uri",
	"select_all_containers",
	"delete_container",
}

var PagesFunctions = []string{
	"init_pages",
	"upsert_page",
	"select_page",
	"select_pages_by_container",
	"select_pages_by_similarity",
	"delete_page",
}

var InscriptionsFunctions = []string{
	"init_inscriptions",
	"insert_inscription",
	"select_inscriptions_by_page",
	"select_inscriptions_by_type",
	"search_inscriptions",
	"delete_inscriptions_by_page",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadContainersSql loads container-related SQL functions
func LoadContainersSql(db *sql.DB, force bool) error {
	return loadSql(db, "containers", containersSQL, ContainersFunctions, force)
}

// LoadPagesSql loads page-related SQL functions
func LoadPagesSql(db *sql.DB, force bool) error {
	return loadSql(db, "pages", pagesSQL, PagesFunctions, force)
}

// LoadInscriptionsSql loads inscription-related SQL functions
func LoadInscriptionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "inscriptions", inscriptionsSQL, InscriptionsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadContainersSql(db, force); err != nil {
		return err
	}

	if err := LoadPagesSql(db, force); err != nil {
		return err
	}

	if err := LoadInscriptionsSql(db, force); err != nil {
		return err
	}

	return nil
}

func loadSql(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(script)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
