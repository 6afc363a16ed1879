package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/f0rbit/media-timeline/internal/domainerr"
)

// snapshotRow is the gorm-mapped row backing Backend, following the
// teacher's plain-struct-with-TableName model convention.
type snapshotRow struct {
	ID          int64  `gorm:"primaryKey;autoIncrement"`
	StoreID     string `gorm:"not null;index:idx_snapshots_store_version,priority:1"`
	Version     int64  `gorm:"not null;index:idx_snapshots_store_version,priority:2"`
	ContentHash string `gorm:"not null"`
	Tags        string // comma-joined
	Payload     []byte `gorm:"type:jsonb"`
	CreatedAt   time.Time
}

func (snapshotRow) TableName() string { return "store_snapshots" }

type edgeRow struct {
	ID              int64  `gorm:"primaryKey;autoIncrement"`
	SnapshotID      int64  `gorm:"not null;index"`
	ParentStoreID   string `gorm:"not null"`
	ParentVersion   int64  `gorm:"not null"`
	Role            string `gorm:"not null"`
}

func (edgeRow) TableName() string { return "store_snapshot_edges" }

// GormBackend is the postgres-backed Backend implementation.
type GormBackend struct {
	db *gorm.DB
}

func NewGormBackend(db *gorm.DB) *GormBackend {
	return &GormBackend{db: db}
}

// Migrate creates/updates the backing tables. Called once at startup from
// cmd/api and cmd/cron, mirroring the teacher's container wiring that runs
// setup before serving traffic.
func (g *GormBackend) Migrate(ctx context.Context) error {
	return g.db.WithContext(ctx).AutoMigrate(&snapshotRow{}, &edgeRow{})
}

func toRow(storeID string, version int64, payload []byte, hash string, opts PutOptions) snapshotRow {
	return snapshotRow{
		StoreID:     storeID,
		Version:     version,
		ContentHash: hash,
		Tags:        strings.Join(opts.Tags, ","),
		Payload:     payload,
		CreatedAt:   time.Now().UTC(),
	}
}

func fromRow(r snapshotRow, parents []ParentRef) Snapshot {
	var tags []string
	if r.Tags != "" {
		tags = strings.Split(r.Tags, ",")
	}
	return Snapshot{
		StoreID:     r.StoreID,
		Version:     r.Version,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
		Tags:        tags,
		Payload:     json.RawMessage(r.Payload),
		Parents:     parents,
	}
}

func (g *GormBackend) loadParents(ctx context.Context, snapshotID int64) ([]ParentRef, error) {
	var edges []edgeRow
	if err := g.db.WithContext(ctx).Where("snapshot_id = ?", snapshotID).Find(&edges).Error; err != nil {
		return nil, err
	}
	out := make([]ParentRef, 0, len(edges))
	for _, e := range edges {
		out = append(out, ParentRef{StoreID: e.ParentStoreID, Version: e.ParentVersion, Role: ParentRole(e.Role)})
	}
	return out, nil
}

// Put appends a new version of storeID, unless its content hash matches the
// current latest version. Writes to a store id that already has versions
// are serialized via a row-level lock on the latest row so concurrent
// writers can't race each other's version numbers; the first write to a
// new store id has no row to lock.
func (g *GormBackend) Put(ctx context.Context, storeID string, payload []byte, opts PutOptions) (Snapshot, error) {
	hash := hashContent(payload)
	var result Snapshot

	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var latest snapshotRow
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("store_id = ?", storeID).
			Order("version DESC").
			First(&latest).Error

		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			row := toRow(storeID, 1, payload, hash, opts)
			if err := tx.Create(&row).Error; err != nil {
				return domainerr.StoreError("put", err.Error())
			}
			if err := insertEdges(tx, row.ID, opts.Parents); err != nil {
				return err
			}
			result = fromRow(row, opts.Parents)
			return nil
		case err != nil:
			return domainerr.StoreError("put", err.Error())
		}

		if latest.ContentHash == hash {
			parents, perr := g.loadParents(ctx, latest.ID)
			if perr != nil {
				return domainerr.StoreError("put", perr.Error())
			}
			result = fromRow(latest, parents)
			return nil
		}

		row := toRow(storeID, latest.Version+1, payload, hash, opts)
		if err := tx.Create(&row).Error; err != nil {
			return domainerr.StoreError("put", err.Error())
		}
		if err := insertEdges(tx, row.ID, opts.Parents); err != nil {
			return err
		}
		result = fromRow(row, opts.Parents)
		return nil
	})
	if err != nil {
		return Snapshot{}, err
	}
	return result, nil
}

func insertEdges(tx *gorm.DB, snapshotID int64, parents []ParentRef) error {
	if len(parents) == 0 {
		return nil
	}
	rows := make([]edgeRow, 0, len(parents))
	for _, p := range parents {
		rows = append(rows, edgeRow{
			SnapshotID:    snapshotID,
			ParentStoreID: p.StoreID,
			ParentVersion: p.Version,
			Role:          string(p.Role),
		})
	}
	if err := tx.Create(&rows).Error; err != nil {
		return domainerr.StoreError("put", err.Error())
	}
	return nil
}

func (g *GormBackend) GetLatest(ctx context.Context, storeID string) (Snapshot, error) {
	var row snapshotRow
	err := g.db.WithContext(ctx).Where("store_id = ?", storeID).Order("version DESC").First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, domainerr.NotFound("store id " + storeID)
	}
	if err != nil {
		return Snapshot{}, domainerr.StoreError("get_latest", err.Error())
	}
	parents, err := g.loadParents(ctx, row.ID)
	if err != nil {
		return Snapshot{}, domainerr.StoreError("get_latest", err.Error())
	}
	return fromRow(row, parents), nil
}

func (g *GormBackend) Get(ctx context.Context, storeID string, version int64) (Snapshot, error) {
	var row snapshotRow
	err := g.db.WithContext(ctx).Where("store_id = ? AND version = ?", storeID, version).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Snapshot{}, domainerr.NotFound("store id " + storeID)
	}
	if err != nil {
		return Snapshot{}, domainerr.StoreError("get", err.Error())
	}
	parents, err := g.loadParents(ctx, row.ID)
	if err != nil {
		return Snapshot{}, domainerr.StoreError("get", err.Error())
	}
	return fromRow(row, parents), nil
}

// DeleteByTag removes every snapshot (and its lineage edges) tagged with
// tag, via the comma-joined Tags column Put writes alongside each row.
func (g *GormBackend) DeleteByTag(ctx context.Context, tag string) (int, error) {
	var rows []snapshotRow
	err := g.db.WithContext(ctx).
		Where("tags = ? OR tags LIKE ? OR tags LIKE ? OR tags LIKE ?", tag, tag+",%", "%,"+tag, "%,"+tag+",%").
		Find(&rows).Error
	if err != nil {
		return 0, domainerr.StoreError("delete_by_tag", err.Error())
	}
	if len(rows) == 0 {
		return 0, nil
	}

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	err = g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("snapshot_id IN ?", ids).Delete(&edgeRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&snapshotRow{}).Error
	})
	if err != nil {
		return 0, domainerr.StoreError("delete_by_tag", err.Error())
	}
	return len(rows), nil
}

func (g *GormBackend) List(ctx context.Context, storeID string, opts ListOptions) ([]SnapshotMeta, error) {
	q := g.db.WithContext(ctx).Where("store_id = ?", storeID).Order("version DESC")
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	var rows []snapshotRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, domainerr.StoreError("list", err.Error())
	}
	out := make([]SnapshotMeta, 0, len(rows))
	for _, r := range rows {
		var tags []string
		if r.Tags != "" {
			tags = strings.Split(r.Tags, ",")
		}
		out = append(out, SnapshotMeta{
			StoreID: r.StoreID, Version: r.Version, ContentHash: r.ContentHash,
			CreatedAt: r.CreatedAt, Tags: tags,
		})
	}
	return out, nil
}
