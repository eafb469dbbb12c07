package main

import (
	"context"
	"fmt"
	"log"

	"github.com/siherrmann/lexrag"
	"github.com/siherrmann/lexrag/helper"
	"github.com/siherrmann/lexrag/model"
)

// Excerpt of a student regulation with the usual OCR damage: broken words
// and page markers from the extraction step.
const manualPages = `TÍTULO I
DISPOSICIONES GENERALES

CAPÍTULO I
DEL ÁMBITO DE APLICACIÓN

ARTÍCULO 1. Objeto. El presente reglamento regula los derechos y deberes de los estudiantes de la institu ción, así como el régimen disciplinario aplicable a las faltas cometidas dentro y fuera del campus.

ARTÍCULO 2. Ámbito. Este reglamento aplica a todos los ESTUDIANTE S matriculados en programas de pregrado y posgrado, en modalidad presencial o virtual.`

const disciplinaPages = `TÍTULO II
RÉGIMEN DISCIPLINARIO

ARTÍCULO 3. Debido proceso. Toda actuación disciplinaria garantiza al estudiante el derech o al debido proceso, incluyendo el derecho a la defensa, a presentar pruebas y a controvertir las que se alleguen en su contra.

ARTÍCULO 4. Notificación. Toda decisión disciplinaria debe ser motivada y notificada personalmente al estudiante dentro de los cinco días hábiles siguientes a su adopción.`

func main() {
	// Start a test PostgreSQL container with pgvector
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	l, err := lexrag.New(dbConfig, 384)
	if err != nil {
		log.Fatalf("Failed to create lexrag instance: %v", err)
	}
	defer l.Close()

	// Set up the default pipeline (repair + legal segmentation + embeddings).
	// The all-MiniLM-L6-v2 model is downloaded on first use.
	if err := l.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// A document built from per-page extraction output
	doc := &model.Document{
		Title:  "Reglamento Estudiantil",
		Source: "reglamento_estudiantil.pdf",
		Pages: []model.Page{
			{Number: 1, Text: manualPages},
			{Number: 2, Text: disciplinaPages},
		},
	}

	fmt.Println("Ingesting document...")
	report, err := l.Ingest(context.Background(), doc, true)
	if err != nil {
		log.Fatalf("Failed to ingest document: %v", err)
	}
	fmt.Printf("Inserted %d chunks in %s\n", report.ChunkCount, report.Elapsed)
	for _, warning := range report.Warnings {
		fmt.Printf("Warning: %s\n", warning)
	}

	queryText := "¿Qué garantías tiene el estudiante en un proceso disciplinario?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultQueryConfig()
	config.TopK = 3

	hits, err := l.Search(context.Background(), queryText, &config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d hits:\n", len(hits))
	for i, hit := range hits {
		fmt.Printf("\n--- Hit %d ---\n", i+1)
		fmt.Printf("Distance: %.4f\n", hit.Distance)
		fmt.Printf("Article:  %s (página %d)\n", hit.Metadata.Article, hit.Metadata.Page)
		fmt.Printf("Text:     %s\n", hit.Text)
	}

	// Assemble a bounded context for a downstream answerer
	config.MaxContextChars = 1500
	bundle, err := l.ContextForQuery(context.Background(), queryText, &config)
	if err != nil {
		log.Fatalf("Failed to assemble context: %v", err)
	}
	fmt.Printf("\nContext (%d chunks, %d chars):\n%s\n", bundle.ChunkCount, len(bundle.Text), bundle.Text)

	stats, err := l.Stats(context.Background())
	if err != nil {
		log.Fatalf("Failed to read stats: %v", err)
	}
	fmt.Printf("\nStore: %d chunks from %d documents, model %s (%d dims)\n",
		stats.ChunkCount, stats.DocumentCount, stats.EmbeddingModel, stats.EmbeddingDim)
}
