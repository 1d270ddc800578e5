package attendance

import (
	"context"

	"studentattendance/internal/docstore"
	"studentattendance/internal/model"
)

// DefaultBatchSize bounds the ids sent in a single inclusion query.
const DefaultBatchSize = 30

// Repository maps attendance entities onto the document store.
type Repository struct {
	store     docstore.Store
	batchSize int
}

// NewRepository creates a repo.
func NewRepository(store docstore.Store, batchSize int) *Repository {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Repository{store: store, batchSize: batchSize}
}

// InsertSession writes a new session and returns it with its id.
func (r *Repository) InsertSession(ctx context.Context, s model.Session) (model.Session, error) {
	id, err := r.store.Add(ctx, model.CollSessions, s.Doc())
	if err != nil {
		return model.Session{}, err
	}
	s.ID = id
	return s, nil
}

// GetSession returns a single session by id.
func (r *Repository) GetSession(ctx context.Context, id string) (model.Session, error) {
	doc, err := r.store.Get(ctx, model.CollSessions, id)
	if err != nil {
		return model.Session{}, err
	}
	return model.SessionFromDoc(doc), nil
}

// EndSession flips active to false.
func (r *Repository) EndSession(ctx context.Context, id string) error {
	return r.store.Update(ctx, model.CollSessions, id, docstore.Doc{"active": false})
}

// ActiveSessionsByCode returns active sessions holding code.
func (r *Repository) ActiveSessionsByCode(ctx context.Context, code string) ([]model.Session, error) {
	return r.sessions(ctx, docstore.Eq("code", code), docstore.Eq("active", true))
}

// ActiveSessionsByProfessor returns the professor's active sessions.
func (r *Repository) ActiveSessionsByProfessor(ctx context.Context, professorID string) ([]model.Session, error) {
	return r.sessions(ctx, docstore.Eq("professorId", professorID), docstore.Eq("active", true))
}

// SessionsByProfessor returns every session the professor ever opened.
func (r *Repository) SessionsByProfessor(ctx context.Context, professorID string) ([]model.Session, error) {
	return r.sessions(ctx, docstore.Eq("professorId", professorID))
}

// ActiveSessions returns every active session.
func (r *Repository) ActiveSessions(ctx context.Context) ([]model.Session, error) {
	return r.sessions(ctx, docstore.Eq("active", true))
}

// SessionsByIDs loads sessions in batches.
func (r *Repository) SessionsByIDs(ctx context.Context, ids []string) ([]model.Session, error) {
	docs, err := r.batched(ctx, model.CollSessions, ids, docstore.IDIn)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.SessionFromDoc(d))
	}
	return out, nil
}

func (r *Repository) sessions(ctx context.Context, filters ...docstore.Filter) ([]model.Session, error) {
	docs, err := r.store.Query(ctx, model.CollSessions, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]model.Session, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.SessionFromDoc(d))
	}
	return out, nil
}

// RecordsFor returns the records of one student in one session.
func (r *Repository) RecordsFor(ctx context.Context, sessionID, studentID string) ([]model.Record, error) {
	return r.records(ctx, docstore.Eq("sessionId", sessionID), docstore.Eq("studentId", studentID))
}

// RecordsByStudent returns all records of a student.
func (r *Repository) RecordsByStudent(ctx context.Context, studentID string) ([]model.Record, error) {
	return r.records(ctx, docstore.Eq("studentId", studentID))
}

// RecordsBySessionIDs loads records for many sessions in batches.
func (r *Repository) RecordsBySessionIDs(ctx context.Context, sessionIDs []string) ([]model.Record, error) {
	docs, err := r.batched(ctx, model.CollRecords, sessionIDs, func(ids []string) docstore.Filter {
		return docstore.In("sessionId", ids)
	})
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.RecordFromDoc(d))
	}
	return out, nil
}

// CreateRecord writes rec under its precomputed id; a taken id yields docstore.ErrConflict.
func (r *Repository) CreateRecord(ctx context.Context, rec model.Record) error {
	return r.store.Create(ctx, model.CollRecords, rec.ID, rec.Doc())
}

func (r *Repository) records(ctx context.Context, filters ...docstore.Filter) ([]model.Record, error) {
	docs, err := r.store.Query(ctx, model.CollRecords, filters...)
	if err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.RecordFromDoc(d))
	}
	return out, nil
}

// GetUser returns a user profile document.
func (r *Repository) GetUser(ctx context.Context, id string) (model.User, error) {
	doc, err := r.store.Get(ctx, model.CollUsers, id)
	if err != nil {
		return model.User{}, err
	}
	return model.UserFromDoc(doc), nil
}

// UsersByIDs loads user documents in batches.
func (r *Repository) UsersByIDs(ctx context.Context, ids []string) ([]model.User, error) {
	docs, err := r.batched(ctx, model.CollUsers, ids, docstore.IDIn)
	if err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, model.UserFromDoc(d))
	}
	return out, nil
}

func (r *Repository) batched(ctx context.Context, collection string, ids []string, filter func([]string) docstore.Filter) ([]docstore.Document, error) {
	var out []docstore.Document
	for _, chunk := range chunks(ids, r.batchSize) {
		docs, err := r.store.Query(ctx, collection, filter(chunk))
		if err != nil {
			return nil, err
		}
		out = append(out, docs...)
	}
	return out, nil
}

func chunks(ids []string, size int) [][]string {
	var out [][]string
	for len(ids) > size {
		out = append(out, ids[:size:size])
		ids = ids[size:]
	}
	if len(ids) > 0 {
		out = append(out, ids)
	}
	return out
}
