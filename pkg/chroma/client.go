package chroma

import (
	"context"
	"fmt"
	"log"
	"os"

	"jobmatch-backend/pkg/config"

	chroma "github.com/amikos-tech/chroma-go/pkg/api/v2"
	"github.com/amikos-tech/chroma-go/pkg/embeddings/gemini"
)

const collectionName = "application_messages"

// Document is one inbox message as stored in the vector index.
type Document struct {
	MessageID     string
	UserID        string
	ApplicationID string
	Company       string
	Position      string
	Subject       string
	Body          string
}

func (d Document) text() string {
	text := fmt.Sprintf("Company: %s\nPosition: %s\nSubject: %s\n\n%s", d.Company, d.Position, d.Subject, d.Body)
	// embedding models have token limits
	if len(text) > 8000 {
		text = text[:8000]
	}
	return text
}

// Client indexes inbox messages in Chroma Cloud using Gemini embeddings.
type Client struct {
	collection chroma.Collection
}

func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.ChromaAPIKey == "" {
		return nil, fmt.Errorf("CHROMA_API_KEY is required")
	}
	if cfg.GeminiApiKey != "" {
		os.Setenv("GEMINI_API_KEY", cfg.GeminiApiKey)
	}

	embedFunc, err := gemini.NewGeminiEmbeddingFunction(
		gemini.WithEnvAPIKey(),
		gemini.WithDefaultModel("text-embedding-004"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini embedding function: %w", err)
	}

	opts := []chroma.ClientOption{
		chroma.WithBaseURL(chroma.ChromaCloudEndpoint),
		chroma.WithCloudAPIKey(cfg.ChromaAPIKey),
	}
	switch {
	case cfg.ChromaDatabase != "" && cfg.ChromaTenant != "":
		opts = append(opts, chroma.WithDatabaseAndTenant(cfg.ChromaDatabase, cfg.ChromaTenant))
	case cfg.ChromaTenant != "":
		opts = append(opts, chroma.WithTenant(cfg.ChromaTenant))
	}

	client, err := chroma.NewHTTPClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Chroma client: %w", err)
	}

	collection, err := client.GetOrCreateCollection(ctx, collectionName, chroma.WithEmbeddingFunctionCreate(embedFunc))
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}

	log.Printf("[Chroma] Using collection %s", collectionName)
	return &Client{collection: collection}, nil
}

// UpsertMessage indexes a message under its own id, replacing older versions.
func (c *Client) UpsertMessage(ctx context.Context, doc Document) error {
	metadata, err := chroma.NewDocumentMetadataFromMap(map[string]interface{}{
		"user_id":        doc.UserID,
		"application_id": doc.ApplicationID,
		"company":        doc.Company,
		"subject":        doc.Subject,
	})
	if err != nil {
		return fmt.Errorf("failed to create metadata: %w", err)
	}

	err = c.collection.Upsert(ctx,
		chroma.WithIDs(chroma.DocumentID(doc.MessageID)),
		chroma.WithMetadatas(metadata),
		chroma.WithTexts(doc.text()),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert message %s: %w", doc.MessageID, err)
	}
	return nil
}

// SearchMessages returns message ids of one user ordered by similarity.
func (c *Client) SearchMessages(ctx context.Context, userID, query string, limit int) ([]string, error) {
	results, err := c.collection.Query(ctx,
		chroma.WithQueryTexts(query),
		chroma.WithNResults(limit),
		chroma.WithWhereQuery(chroma.EqString("user_id", userID)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	if results == nil || results.CountGroups() == 0 {
		return []string{}, nil
	}

	groups := results.GetIDGroups()
	if len(groups) == 0 {
		return []string{}, nil
	}
	ids := make([]string, 0, len(groups[0]))
	for _, id := range groups[0] {
		ids = append(ids, string(id))
	}
	return ids, nil
}
