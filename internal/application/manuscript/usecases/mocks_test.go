package usecases

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openpublisher/openpublisher/internal/application/ledger"
	"github.com/openpublisher/openpublisher/internal/domain/manuscript"
	vo "github.com/openpublisher/openpublisher/internal/domain/manuscript/valueobjects"
	"github.com/openpublisher/openpublisher/internal/shared/logger"
	"github.com/openpublisher/openpublisher/internal/shared/services/sanitize"
)

// memStore backs every repository with maps so tests can count rows.
type memStore struct {
	mu          sync.Mutex
	nextID      uint
	manuscripts map[uint]*manuscript.Manuscript
	authors     map[string]*manuscript.Author
	events      []*manuscript.Event
	assignments []*manuscript.ReviewerAssignment
	anchors     map[string]*manuscript.LedgerAnchor

	eventCreateErr error
}

func newMemStore() *memStore {
	return &memStore{
		manuscripts: make(map[uint]*manuscript.Manuscript),
		authors:     make(map[string]*manuscript.Author),
		anchors:     make(map[string]*manuscript.LedgerAnchor),
	}
}

func (s *memStore) id() uint {
	s.nextID++
	return s.nextID
}

func (s *memStore) eventsFor(manuscriptID uint) []*manuscript.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manuscript.Event
	for _, e := range s.events {
		if e.ManuscriptID() == manuscriptID {
			out = append(out, e)
		}
	}
	return out
}

func (s *memStore) assignmentsFor(manuscriptID uint) []*manuscript.ReviewerAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*manuscript.ReviewerAssignment
	for _, a := range s.assignments {
		if a.ManuscriptID() == manuscriptID {
			out = append(out, a)
		}
	}
	return out
}

func (s *memStore) anchorList() []*manuscript.LedgerAnchor {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*manuscript.LedgerAnchor, 0, len(s.anchors))
	for _, a := range s.anchors {
		out = append(out, a)
	}
	return out
}

type memManuscripts struct{ *memStore }

func (r memManuscripts) Create(ctx context.Context, m *manuscript.Manuscript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := m.SetID(r.id()); err != nil {
		return err
	}
	r.manuscripts[m.ID()] = m
	return nil
}

func (r memManuscripts) Update(ctx context.Context, m *manuscript.Manuscript) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.manuscripts[m.ID()]; !ok {
		return manuscript.ErrManuscriptNotFound
	}
	r.manuscripts[m.ID()] = m
	return nil
}

func (r memManuscripts) GetByID(ctx context.Context, id uint) (*manuscript.Manuscript, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.manuscripts[id]
	if !ok {
		return nil, manuscript.ErrManuscriptNotFound
	}
	return m, nil
}

func (r memManuscripts) GetByIDForUpdate(ctx context.Context, id uint) (*manuscript.Manuscript, error) {
	return r.GetByID(ctx, id)
}

func (r memManuscripts) List(ctx context.Context, filter manuscript.ManuscriptFilter) ([]*manuscript.Manuscript, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*manuscript.Manuscript
	for _, m := range r.manuscripts {
		if m.JournalID() != filter.JournalID {
			continue
		}
		if filter.Status != nil && m.Status() != *filter.Status {
			continue
		}
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID() > out[j].ID() })
	return out, int64(len(out)), nil
}

type memAuthors struct{ *memStore }

func (r memAuthors) GetByEmail(ctx context.Context, email string) (*manuscript.Author, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.authors[email], nil
}

func (r memAuthors) Create(ctx context.Context, a *manuscript.Author) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.authors[a.Email()]; ok {
		return fmt.Errorf("UNIQUE constraint failed: authors.email")
	}
	if err := a.SetID(r.id()); err != nil {
		return err
	}
	r.authors[a.Email()] = a
	return nil
}

type memEvents struct{ *memStore }

func (r memEvents) Create(ctx context.Context, e *manuscript.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.eventCreateErr != nil {
		return r.eventCreateErr
	}
	if err := e.SetID(r.id()); err != nil {
		return err
	}
	r.events = append(r.events, e)
	return nil
}

func (r memEvents) ListByManuscript(ctx context.Context, manuscriptID uint) ([]*manuscript.Event, error) {
	out := r.eventsFor(manuscriptID)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Timestamp().Equal(out[j].Timestamp()) {
			return out[i].Timestamp().After(out[j].Timestamp())
		}
		return out[i].ID() > out[j].ID()
	})
	return out, nil
}

type memAssignments struct{ *memStore }

func (r memAssignments) Create(ctx context.Context, a *manuscript.ReviewerAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.assignments {
		if k := existing.ActiveKey(); k != nil && a.ActiveKey() != nil && *k == *a.ActiveKey() {
			return manuscript.ErrReviewerAlreadyAssigned
		}
	}
	if err := a.SetID(r.id()); err != nil {
		return err
	}
	r.assignments = append(r.assignments, a)
	return nil
}

func (r memAssignments) Update(ctx context.Context, a *manuscript.ReviewerAssignment) error {
	return nil
}

func (r memAssignments) GetActive(ctx context.Context, manuscriptID uint, reviewerID string) (*manuscript.ReviewerAssignment, error) {
	for _, a := range r.assignmentsFor(manuscriptID) {
		if a.ReviewerID() == reviewerID && a.IsActive() {
			return a, nil
		}
	}
	return nil, nil
}

func (r memAssignments) ListByManuscript(ctx context.Context, manuscriptID uint) ([]*manuscript.ReviewerAssignment, error) {
	return r.assignmentsFor(manuscriptID), nil
}

type memAnchors struct{ *memStore }

func (r memAnchors) Create(ctx context.Context, a *manuscript.LedgerAnchor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.anchors[a.ID()] = a
	return nil
}

func (r memAnchors) Update(ctx context.Context, a *manuscript.LedgerAnchor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.anchors[a.ID()]; !ok {
		return manuscript.ErrAnchorNotFound
	}
	r.anchors[a.ID()] = a
	return nil
}

func (r memAnchors) GetByID(ctx context.Context, id string) (*manuscript.LedgerAnchor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.anchors[id]
	if !ok {
		return nil, manuscript.ErrAnchorNotFound
	}
	return a, nil
}

func (r memAnchors) ListByIDs(ctx context.Context, ids []string) ([]*manuscript.LedgerAnchor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*manuscript.LedgerAnchor
	for _, id := range ids {
		if a, ok := r.anchors[id]; ok {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r memAnchors) ListAwaitingReceipt(ctx context.Context, before time.Time, limit int) ([]*manuscript.LedgerAnchor, error) {
	var out []*manuscript.LedgerAnchor
	for _, a := range r.anchorList() {
		if a.Status().AwaitsReceipt() && !a.UpdatedAt().After(before) {
			out = append(out, a)
		}
	}
	return limitAnchors(out, limit), nil
}

func (r memAnchors) ListRetryable(ctx context.Context, maxAttempts int, limit int) ([]*manuscript.LedgerAnchor, error) {
	var out []*manuscript.LedgerAnchor
	for _, a := range r.anchorList() {
		if a.Status() == vo.AnchorFailed && a.ManuscriptID() != nil && a.Attempts() < maxAttempts {
			out = append(out, a)
		}
	}
	return limitAnchors(out, limit), nil
}

func limitAnchors(list []*manuscript.LedgerAnchor, limit int) []*manuscript.LedgerAnchor {
	sort.Slice(list, func(i, j int) bool { return list[i].UpdatedAt().Before(list[j].UpdatedAt()) })
	if limit > 0 && len(list) > limit {
		return list[:limit]
	}
	return list
}

// passthroughTx runs fn without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockJournals struct {
	ExistsFunc func(ctx context.Context, journalID uint) (bool, error)
}

func (m *mockJournals) Exists(ctx context.Context, journalID uint) (bool, error) {
	if m.ExistsFunc != nil {
		return m.ExistsFunc(ctx, journalID)
	}
	return true, nil
}

type mockProfiles struct {
	profiles map[string]*manuscript.Profile
}

func (m *mockProfiles) GetByID(ctx context.Context, id string) (*manuscript.Profile, error) {
	return m.profiles[id], nil
}

type mockPublisher struct {
	mu        sync.Mutex
	published []*manuscript.Event
}

func (m *mockPublisher) PublishEvent(ctx context.Context, e *manuscript.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, e)
	return nil
}

type mockNotifier struct {
	notices chan ReviewerAssignedNotice
}

func (m *mockNotifier) NotifyReviewerAssigned(ctx context.Context, n ReviewerAssignedNotice) error {
	m.notices <- n
	return nil
}

// mockLedger confirms everything unless told otherwise.
type mockLedger struct {
	mu          sync.Mutex
	unreachable bool
	SubmitFunc  func(ctx context.Context, payload []byte) (string, error)
	WaitFunc    func(ctx context.Context, txHash string) (*ledger.Receipt, error)
	ReceiptFunc func(ctx context.Context, txHash string) (*ledger.Receipt, error)

	sent     int
	payloads [][]byte
}

func (m *mockLedger) IsReachable(ctx context.Context) bool {
	return !m.unreachable
}

func (m *mockLedger) Anchor(ctx context.Context, payload []byte) (*ledger.Receipt, error) {
	if !m.IsReachable(ctx) {
		return nil, ledger.NewAnchorError(ledger.ErrUnreachable, "", nil)
	}
	txHash, err := m.Submit(ctx, payload)
	if err != nil {
		return nil, err
	}
	return m.WaitReceipt(ctx, txHash)
}

func (m *mockLedger) Submit(ctx context.Context, payload []byte) (string, error) {
	m.mu.Lock()
	m.payloads = append(m.payloads, payload)
	m.mu.Unlock()

	if m.SubmitFunc != nil {
		return m.SubmitFunc(ctx, payload)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent++
	return testTxHash(m.sent), nil
}

func (m *mockLedger) WaitReceipt(ctx context.Context, txHash string) (*ledger.Receipt, error) {
	if m.WaitFunc != nil {
		return m.WaitFunc(ctx, txHash)
	}
	return successReceipt(txHash), nil
}

func (m *mockLedger) Receipt(ctx context.Context, txHash string) (*ledger.Receipt, error) {
	if m.ReceiptFunc != nil {
		return m.ReceiptFunc(ctx, txHash)
	}
	return successReceipt(txHash), nil
}

func testTxHash(n int) string {
	return fmt.Sprintf("0x%064x", n)
}

func successReceipt(txHash string) *ledger.Receipt {
	return &ledger.Receipt{
		TxHash:      ledger.NormalizeTxHash(txHash),
		Success:     true,
		BlockNumber: 100,
		GasUsed:     52000,
		TxIndex:     1,
	}
}

type mockLocker struct {
	held     bool
	released int
}

func (m *mockLocker) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	if m.held {
		return nil, false, nil
	}
	return func(context.Context) error {
		m.released++
		return nil
	}, true, nil
}

// harness wires every use case over one memStore.
type harness struct {
	store     *memStore
	ledger    *mockLedger
	publisher *mockPublisher
	notifier  *mockNotifier
	profiles  *mockProfiles
	journals  *mockJournals
	anchorer  *Anchorer
	eventLog  *EventLog
	log       logger.Interface
}

func newHarness(t *testing.T, strict bool) *harness {
	t.Helper()
	h := &harness{
		store:     newMemStore(),
		ledger:    &mockLedger{},
		publisher: &mockPublisher{},
		notifier:  &mockNotifier{notices: make(chan ReviewerAssignedNotice, 8)},
		profiles: &mockProfiles{profiles: map[string]*manuscript.Profile{
			"rev-1": {ID: "rev-1", FirstName: "Ada", LastName: "Byron", Email: "ada@example.org"},
			"rev-2": {ID: "rev-2", FirstName: "Alan", LastName: "Turing", Email: "alan@example.org"},
		}},
		journals: &mockJournals{},
		log:      logger.NewDiscardLogger(),
	}
	h.anchorer = NewAnchorer(h.ledger, memAnchors{h.store}, strict, h.log)
	h.eventLog = NewEventLog(memEvents{h.store}, memAnchors{h.store}, h.publisher, h.log)
	return h
}

func (h *harness) submit() *SubmitManuscriptUseCase {
	return NewSubmitManuscriptUseCase(memManuscripts{h.store}, memAuthors{h.store}, h.journals,
		h.anchorer, h.eventLog, passthroughTx{}, sanitize.NewSanitizer(), h.log)
}

func (h *harness) assign() *AssignReviewerUseCase {
	return NewAssignReviewerUseCase(memManuscripts{h.store}, memAssignments{h.store}, h.profiles,
		h.anchorer, h.eventLog, passthroughTx{}, h.notifier, h.log)
}

func (h *harness) review() *SubmitReviewUseCase {
	return NewSubmitReviewUseCase(memManuscripts{h.store}, memAssignments{h.store},
		h.anchorer, h.eventLog, passthroughTx{}, sanitize.NewSanitizer(), h.log)
}

func (h *harness) corrections() *SubmitCorrectionsUseCase {
	return NewSubmitCorrectionsUseCase(memManuscripts{h.store}, h.anchorer, h.eventLog,
		passthroughTx{}, sanitize.NewSanitizer(), h.log)
}

func (h *harness) changeStatus() *ChangeStatusUseCase {
	return NewChangeStatusUseCase(memManuscripts{h.store}, h.anchorer, h.eventLog,
		passthroughTx{}, sanitize.NewSanitizer(), h.log)
}

func (h *harness) publish() *PublishManuscriptUseCase {
	return NewPublishManuscriptUseCase(memManuscripts{h.store}, h.anchorer, h.eventLog, passthroughTx{}, h.log)
}

func (h *harness) provenance() *GetProvenanceUseCase {
	return NewGetProvenanceUseCase(memManuscripts{h.store}, h.eventLog, h.log)
}

var (
	editor    = manuscript.Actor{ID: "editor-1", FirstName: "Grace", LastName: "Hopper", Email: "grace@example.org", Roles: []string{"editor"}}
	submitter = manuscript.Actor{ID: "author-1", FirstName: "Emmy", LastName: "Noether", Email: "emmy@example.org", Roles: []string{"author"}}
)

func validSubmission() SubmitManuscriptCommand {
	return SubmitManuscriptCommand{
		Actor:     submitter,
		JournalID: 7,
		Title:     "On Invariant Variation Problems",
		Abstract:  "Symmetries and conservation laws.",
		Keywords:  []string{"symmetry", "conservation"},
		Authors: []AuthorInput{
			{FirstName: "Emmy", LastName: "Noether", Email: "emmy@example.org", Affiliation: "Göttingen", IsPrimary: true},
		},
	}
}

// seedManuscript submits a manuscript through the use case and optionally
// forces it into status.
func (h *harness) seedManuscript(t *testing.T, status vo.ManuscriptStatus) *manuscript.Manuscript {
	t.Helper()
	res, err := h.submit().Execute(context.Background(), validSubmission())
	require.NoError(t, err)

	m, err := memManuscripts{h.store}.GetByID(context.Background(), res.ManuscriptID)
	require.NoError(t, err)
	if status == m.Status() {
		return m
	}

	forced, err := manuscript.ReconstructManuscript(m.ID(), m.Title(), m.Abstract(), m.Keywords(), m.JournalID(),
		m.SubmittedBy(), status, m.Authors(), m.ReviewerIDs(), m.SubmittedAt(), m.UpdatedAt())
	require.NoError(t, err)
	require.NoError(t, memManuscripts{h.store}.Update(context.Background(), forced))
	return forced
}
