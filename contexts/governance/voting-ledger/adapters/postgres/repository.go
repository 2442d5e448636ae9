package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"ballotbox/contexts/governance/voting-ledger/domain/entities"
	domainerrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	"ballotbox/contexts/governance/voting-ledger/ports"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Migrate creates or updates the ledger tables.
func (r *Repository) Migrate(ctx context.Context) error {
	if err := r.db.WithContext(ctx).AutoMigrate(
		&ledgerModel{},
		&candidateModel{},
		&tallyModel{},
		&outboxModel{},
	); err != nil {
		return r.logError("ledger_repo_migrate_failed", err)
	}
	return nil
}

// CreateLedger serializes deploys of one admin with a transaction-scoped
// advisory lock, so the nonce counted here is still free at insert time.
func (r *Repository) CreateLedger(
	ctx context.Context,
	admin string,
	build func(nonce uint64) (ports.LedgerDraft, error),
) (ports.LedgerDraft, error) {
	admin = strings.TrimSpace(admin)
	var draft ports.LedgerDraft
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", admin).Error; err != nil {
			return r.logError("ledger_repo_lock_admin_failed", err, "admin", admin)
		}
		var count int64
		if err := tx.Model(&ledgerModel{}).Where("admin = ?", admin).Count(&count).Error; err != nil {
			return r.logError("ledger_repo_count_by_admin_failed", err, "admin", admin)
		}

		built, err := build(uint64(count))
		if err != nil {
			return err
		}
		draft = built

		row := ledgerModelFromEntity(draft.Ledger)
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		for _, candidate := range draft.Candidates {
			if err := tx.Create(&candidateModel{
				LedgerAddress: row.Address,
				CandidateID:   candidate.ID,
				Name:          candidate.Name,
				CreatedAt:     row.CreatedAt,
			}).Error; err != nil {
				return err
			}
		}
		for _, event := range draft.Events {
			outbox, err := outboxModelFromEnvelope(row.Address, event)
			if err != nil {
				return err
			}
			if err := tx.Create(&outbox).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ports.LedgerDraft{}, domainerrors.ErrLedgerExists
		}
		if isSerializationFailure(err) {
			return ports.LedgerDraft{}, domainerrors.ErrConflict
		}
		return ports.LedgerDraft{}, r.logError("ledger_repo_create_ledger_failed", err,
			"ledger_address", strings.TrimSpace(draft.Ledger.Address),
			"admin", admin,
		)
	}
	return draft, nil
}

func (r *Repository) GetLedger(ctx context.Context, address string) (entities.Ledger, error) {
	row, err := r.loadLedger(r.db.WithContext(ctx), address)
	if err != nil {
		return entities.Ledger{}, err
	}
	return row.toEntity(), nil
}

func (r *Repository) ListCandidates(ctx context.Context, address string) ([]entities.Candidate, error) {
	if _, err := r.loadLedger(r.db.WithContext(ctx), address); err != nil {
		return nil, err
	}
	var rows []candidateModel
	if err := r.db.WithContext(ctx).
		Where("ledger_address = ?", strings.TrimSpace(address)).
		Order("candidate_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_candidates_failed", err, "ledger_address", strings.TrimSpace(address))
	}
	items := make([]entities.Candidate, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetCandidate(ctx context.Context, address string, candidateID uint64) (entities.Candidate, error) {
	if _, err := r.loadLedger(r.db.WithContext(ctx), address); err != nil {
		return entities.Candidate{}, err
	}
	var row candidateModel
	err := r.db.WithContext(ctx).
		Where("ledger_address = ? AND candidate_id = ?", strings.TrimSpace(address), candidateID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Candidate{}, domainerrors.ErrCandidateNotFound
		}
		return entities.Candidate{}, r.logError("ledger_repo_get_candidate_failed", err,
			"ledger_address", strings.TrimSpace(address),
			"candidate_id", candidateID,
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) GetVoteCount(ctx context.Context, address string, session uint64, candidateID uint64) (uint64, error) {
	if _, err := r.loadLedger(r.db.WithContext(ctx), address); err != nil {
		return 0, err
	}
	var row tallyModel
	err := r.db.WithContext(ctx).
		Where("ledger_address = ? AND session = ? AND candidate_id = ?", strings.TrimSpace(address), session, candidateID).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, r.logError("ledger_repo_get_vote_count_failed", err,
			"ledger_address", strings.TrimSpace(address),
			"session", session,
			"candidate_id", candidateID,
		)
	}
	return row.Count, nil
}

// ListEvents reads the event log back out of the outbox, which keeps
// published rows.
func (r *Repository) ListEvents(ctx context.Context, address string, afterSequence uint64, limit int) ([]ports.EventEnvelope, error) {
	if _, err := r.loadLedger(r.db.WithContext(ctx), address); err != nil {
		return nil, err
	}
	query := r.db.WithContext(ctx).
		Where("ledger_address = ? AND sequence > ?", strings.TrimSpace(address), afterSequence).
		Order("sequence ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []outboxModel
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_events_failed", err, "ledger_address", strings.TrimSpace(address))
	}
	items := make([]ports.EventEnvelope, 0, len(rows))
	for _, row := range rows {
		var envelope ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &envelope); err != nil {
			return nil, r.logError("ledger_repo_decode_event_failed", err, "outbox_id", row.OutboxID)
		}
		items = append(items, envelope)
	}
	return items, nil
}

// WithLedger runs fn in a database transaction holding the ledger row lock,
// so concurrent mutations of one ledger apply one after another.
func (r *Repository) WithLedger(ctx context.Context, address string, fn func(tx ports.LedgerTx) error) error {
	address = strings.TrimSpace(address)
	err := r.db.WithContext(ctx).Transaction(func(db *gorm.DB) error {
		var row ledgerModel
		err := db.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("address = ?", address).
			First(&row).
			Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainerrors.ErrLedgerNotFound
			}
			return r.logError("ledger_repo_lock_ledger_failed", err, "ledger_address", address)
		}

		tx := &ledgerTx{repo: r, db: db, ledger: row.toEntity(), now: time.Now().UTC()}
		if err := fn(tx); err != nil {
			return err
		}

		result := db.Model(&ledgerModel{}).
			Where("address = ?", address).
			Updates(map[string]any{
				"current_session":  tx.ledger.CurrentSession,
				"candidates_count": tx.ledger.CandidatesCount,
				"event_sequence":   tx.ledger.EventSequence,
				"updated_at":       tx.now,
			})
		if result.Error != nil {
			return r.logError("ledger_repo_commit_ledger_failed", result.Error, "ledger_address", address)
		}
		return nil
	})
	if err != nil && isSerializationFailure(err) {
		return domainerrors.ErrConflict
	}
	return err
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("position ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("ledger_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:      row.OutboxID,
			LedgerAddress: row.LedgerAddress,
			Sequence:      row.Sequence,
			EventType:     row.EventType,
			Payload:       append([]byte(nil), row.Payload...),
			CreatedAt:     row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("ledger_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrConflict
	}
	return nil
}

func (r *Repository) loadLedger(db *gorm.DB, address string) (ledgerModel, error) {
	var row ledgerModel
	err := db.Where("address = ?", strings.TrimSpace(address)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ledgerModel{}, domainerrors.ErrLedgerNotFound
		}
		return ledgerModel{}, r.logError("ledger_repo_get_ledger_failed", err, "ledger_address", strings.TrimSpace(address))
	}
	return row, nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "governance/voting-ledger",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("ledger repository operation failed", fields...)
	return err
}

// ledgerTx writes straight into the surrounding database transaction; the
// ledger row itself is updated once fn returns.
type ledgerTx struct {
	repo   *Repository
	db     *gorm.DB
	ledger entities.Ledger
	now    time.Time
}

func (tx *ledgerTx) Ledger() entities.Ledger {
	return tx.ledger
}

func (tx *ledgerTx) AppendCandidate(_ context.Context, name string) (entities.Candidate, error) {
	candidate := entities.Candidate{ID: tx.ledger.CandidatesCount + 1, Name: name}
	if err := tx.db.Create(&candidateModel{
		LedgerAddress: tx.ledger.Address,
		CandidateID:   candidate.ID,
		Name:          candidate.Name,
		CreatedAt:     tx.now,
	}).Error; err != nil {
		if isUniqueViolation(err) {
			return entities.Candidate{}, domainerrors.ErrConflict
		}
		return entities.Candidate{}, tx.repo.logError("ledger_repo_append_candidate_failed", err,
			"ledger_address", tx.ledger.Address,
			"candidate_id", candidate.ID,
		)
	}
	tx.ledger.CandidatesCount = candidate.ID
	return candidate, nil
}

func (tx *ledgerTx) IncrementVote(_ context.Context, candidateID uint64) (uint64, error) {
	row := tallyModel{
		LedgerAddress: tx.ledger.Address,
		Session:       tx.ledger.CurrentSession,
		CandidateID:   candidateID,
		Count:         1,
		UpdatedAt:     tx.now,
	}
	err := tx.db.Clauses(
		clause.OnConflict{
			Columns: []clause.Column{{Name: "ledger_address"}, {Name: "session"}, {Name: "candidate_id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"count":      gorm.Expr("voting_ledger_tallies.count + 1"),
				"updated_at": tx.now,
			}),
		},
		clause.Returning{Columns: []clause.Column{{Name: "count"}}},
	).Create(&row).Error
	if err != nil {
		return 0, tx.repo.logError("ledger_repo_increment_vote_failed", err,
			"ledger_address", tx.ledger.Address,
			"session", tx.ledger.CurrentSession,
			"candidate_id", candidateID,
		)
	}
	return row.Count, nil
}

func (tx *ledgerTx) AdvanceSession(_ context.Context) (uint64, error) {
	tx.ledger.CurrentSession++
	return tx.ledger.CurrentSession, nil
}

func (tx *ledgerTx) AppendOutbox(_ context.Context, envelope ports.EventEnvelope) error {
	if envelope.Sequence != tx.ledger.EventSequence+1 {
		return domainerrors.ErrConflict
	}
	row, err := outboxModelFromEnvelope(tx.ledger.Address, envelope)
	if err != nil {
		return tx.repo.logError("ledger_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	if err := tx.db.Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return tx.repo.logError("ledger_repo_append_outbox_insert_failed", err,
			"outbox_id", row.OutboxID,
			"sequence", row.Sequence,
		)
	}
	tx.ledger.EventSequence = envelope.Sequence
	return nil
}

type ledgerModel struct {
	Address         string    `gorm:"column:address;primaryKey"`
	Admin           string    `gorm:"column:admin;uniqueIndex:idx_voting_ledgers_admin_nonce,priority:1"`
	DeployNonce     uint64    `gorm:"column:deploy_nonce;uniqueIndex:idx_voting_ledgers_admin_nonce,priority:2"`
	CurrentSession  uint64    `gorm:"column:current_session"`
	CandidatesCount uint64    `gorm:"column:candidates_count"`
	EventSequence   uint64    `gorm:"column:event_sequence"`
	CreatedAt       time.Time `gorm:"column:created_at"`
	UpdatedAt       time.Time `gorm:"column:updated_at"`
}

func (ledgerModel) TableName() string {
	return "voting_ledgers"
}

func ledgerModelFromEntity(ledger entities.Ledger) ledgerModel {
	row := ledgerModel{
		Address:         strings.TrimSpace(ledger.Address),
		Admin:           strings.TrimSpace(ledger.Admin),
		DeployNonce:     ledger.DeployNonce,
		CurrentSession:  ledger.CurrentSession,
		CandidatesCount: ledger.CandidatesCount,
		EventSequence:   ledger.EventSequence,
		CreatedAt:       ledger.CreatedAt.UTC(),
		UpdatedAt:       ledger.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m ledgerModel) toEntity() entities.Ledger {
	return entities.Ledger{
		Address:         m.Address,
		Admin:           m.Admin,
		DeployNonce:     m.DeployNonce,
		CurrentSession:  m.CurrentSession,
		CandidatesCount: m.CandidatesCount,
		EventSequence:   m.EventSequence,
		CreatedAt:       m.CreatedAt.UTC(),
		UpdatedAt:       m.UpdatedAt.UTC(),
	}
}

type candidateModel struct {
	LedgerAddress string    `gorm:"column:ledger_address;primaryKey"`
	CandidateID   uint64    `gorm:"column:candidate_id;primaryKey;autoIncrement:false"`
	Name          string    `gorm:"column:name"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (candidateModel) TableName() string {
	return "voting_ledger_candidates"
}

func (m candidateModel) toEntity() entities.Candidate {
	return entities.Candidate{ID: m.CandidateID, Name: m.Name}
}

type tallyModel struct {
	LedgerAddress string    `gorm:"column:ledger_address;primaryKey"`
	Session       uint64    `gorm:"column:session;primaryKey;autoIncrement:false"`
	CandidateID   uint64    `gorm:"column:candidate_id;primaryKey;autoIncrement:false"`
	Count         uint64    `gorm:"column:count"`
	UpdatedAt     time.Time `gorm:"column:updated_at"`
}

func (tallyModel) TableName() string {
	return "voting_ledger_tallies"
}

// Position is a bigserial: rows of one ledger are inserted under its row
// lock, so position order is sequence order whatever the writers' clocks say.
type outboxModel struct {
	OutboxID      string     `gorm:"column:outbox_id;primaryKey"`
	Position      uint64     `gorm:"column:position;autoIncrement;uniqueIndex"`
	LedgerAddress string     `gorm:"column:ledger_address;uniqueIndex:idx_voting_ledger_outbox_sequence,priority:1"`
	Sequence      uint64     `gorm:"column:sequence;uniqueIndex:idx_voting_ledger_outbox_sequence,priority:2"`
	EventType     string     `gorm:"column:event_type"`
	PartitionKey  string     `gorm:"column:partition_key"`
	Payload       []byte     `gorm:"column:payload"`
	Status        string     `gorm:"column:status;index"`
	CreatedAt     time.Time  `gorm:"column:created_at"`
	PublishedAt   *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "voting_ledger_outbox"
}

func outboxModelFromEnvelope(address string, envelope ports.EventEnvelope) (outboxModel, error) {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return outboxModel{}, err
	}
	row := outboxModel{
		OutboxID:      strings.TrimSpace(envelope.EventID),
		LedgerAddress: strings.TrimSpace(address),
		Sequence:      envelope.Sequence,
		EventType:     strings.TrimSpace(envelope.EventType),
		PartitionKey:  strings.TrimSpace(envelope.PartitionKey),
		Payload:       payload,
		Status:        outboxStatusPending,
		CreatedAt:     envelope.OccurredAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	return row, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && (pgErr.Code == "40001" || pgErr.Code == "40P01")
}

var _ ports.LedgerRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
