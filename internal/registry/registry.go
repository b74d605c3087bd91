// Package registry maps uploaded documents to their file and index paths.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/ZayedShahcode/ChatPDF/internal/logger"
)

// Document is one registry record for an uploaded PDF. A record exists iff
// both its file and its vector index are expected to exist on disk.
type Document struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	Filename        string    `gorm:"uniqueIndex;not null" json:"filename"`
	UploadTimestamp time.Time `gorm:"not null" json:"upload_timestamp"`
	FilePath        string    `gorm:"not null" json:"file_path"`
	VectorPath      string    `gorm:"not null" json:"vector_path"`
	SessionID       string    `gorm:"index;not null" json:"session_id"`
}

func (Document) TableName() string { return "pdf_metadata" }

// Registry is the relational document store. The backing database is
// sqlite by default; a postgres:// DSN switches drivers.
type Registry struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the database named by databaseURL. Anything that is not
// a postgres DSN is treated as a sqlite file path.
func Open(databaseURL string, log *logger.Logger) (*Registry, error) {
	var dialector gorm.Dialector
	if strings.HasPrefix(databaseURL, "postgres://") || strings.HasPrefix(databaseURL, "postgresql://") {
		dialector = postgres.Open(databaseURL)
	} else {
		dialector = sqlite.Open(databaseURL)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("registry: connecting to database: %w", err)
	}

	return &Registry{db: db, log: log.With("component", "registry")}, nil
}

// Init creates or migrates the metadata table. Must be called once before
// use; it is the only schema side effect this package performs.
func (r *Registry) Init(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(&Document{}); err != nil {
		return fmt.Errorf("registry: migrating schema: %w", err)
	}
	return nil
}

// Upsert inserts the record, replacing any existing record for the same
// filename. Re-uploading a document rebuilds its row rather than
// duplicating it.
func (r *Registry) Upsert(ctx context.Context, doc *Document) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "filename"}},
		DoUpdates: clause.AssignmentColumns([]string{"upload_timestamp", "file_path", "vector_path", "session_id"}),
	}).Create(doc).Error
	if err != nil {
		return fmt.Errorf("registry: saving record for %s: %w", doc.Filename, err)
	}
	return nil
}

// GetByFilename returns the record for filename, or (nil, nil) when no
// record exists.
func (r *Registry) GetByFilename(ctx context.Context, filename string) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).Where("filename = ?", filename).First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("registry: looking up %s: %w", filename, err)
	}
	return &doc, nil
}

// List returns every registry record.
func (r *Registry) List(ctx context.Context) ([]Document, error) {
	var docs []Document
	if err := r.db.WithContext(ctx).Order("id").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("registry: listing records: %w", err)
	}
	return docs, nil
}

// ListBySession returns the records uploaded under the given session.
func (r *Registry) ListBySession(ctx context.Context, sessionID string) ([]Document, error) {
	var docs []Document
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("id").Find(&docs).Error; err != nil {
		return nil, fmt.Errorf("registry: listing session %s: %w", sessionID, err)
	}
	return docs, nil
}

// DeleteByFilename removes the record for filename. Deleting a filename
// with no record is not an error.
func (r *Registry) DeleteByFilename(ctx context.Context, filename string) error {
	if err := r.db.WithContext(ctx).Where("filename = ?", filename).Delete(&Document{}).Error; err != nil {
		return fmt.Errorf("registry: deleting record for %s: %w", filename, err)
	}
	return nil
}

// DeleteBySession removes every record under the given session.
func (r *Registry) DeleteBySession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Delete(&Document{}).Error; err != nil {
		return fmt.Errorf("registry: deleting session %s: %w", sessionID, err)
	}
	return nil
}

// Reset wipes every record. This is an explicit administrative action,
// never a side effect of opening the registry.
func (r *Registry) Reset(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Where("1 = 1").Delete(&Document{}).Error; err != nil {
		return fmt.Errorf("registry: clearing records: %w", err)
	}
	return nil
}

// Close releases the underlying database connection.
func (r *Registry) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
