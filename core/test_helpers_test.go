package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-accountsync/accessmask"
	"github.com/google/uuid"
)

// memoryAccountStore backs both AccountStore and CredentialStore so that
// credentials live on the account the way they do in SQL.
type memoryAccountStore struct {
	mu          sync.Mutex
	accounts    map[string]Account
	credentials map[string]Credential
}

func newMemoryAccountStore() *memoryAccountStore {
	return &memoryAccountStore{
		accounts:    map[string]Account{},
		credentials: map[string]Credential{},
	}
}

func (s *memoryAccountStore) Create(_ context.Context, in CreateAccountInput) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	account := Account{
		ID:        uuid.NewString(),
		UserID:    in.UserID,
		Name:      in.Name,
		Character: in.Character,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.accounts[account.ID] = account
	s.credentials[account.ID] = Credential{AccountID: account.ID}
	return account, nil
}

func (s *memoryAccountStore) Get(_ context.Context, id string) (Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.DeletedAt != nil {
		return Account{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, id)
	}
	return account, nil
}

func (s *memoryAccountStore) SoftDelete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok || account.DeletedAt != nil {
		return fmt.Errorf("%w: id %q", ErrAccountNotFound, id)
	}
	now := time.Now().UTC()
	account.DeletedAt = &now
	s.accounts[id] = account
	return nil
}

func (s *memoryAccountStore) Restore(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	account, ok := s.accounts[id]
	if !ok {
		return fmt.Errorf("%w: id %q", ErrAccountNotFound, id)
	}
	account.DeletedAt = nil
	s.accounts[id] = account
	return nil
}

func (s *memoryAccountStore) GetCredential(_ context.Context, accountID string) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[accountID]; !ok || account.DeletedAt != nil {
		return Credential{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, accountID)
	}
	return s.credentials[accountID], nil
}

func (s *memoryAccountStore) SetOAuthCredential(_ context.Context, accountID string, cred OAuthCredential) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[accountID]; !ok || account.DeletedAt != nil {
		return Credential{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, accountID)
	}
	current := s.credentials[accountID]
	if current.Key != nil && current.Key.Identity.CharacterID != cred.Identity.CharacterID {
		return Credential{}, fmt.Errorf("%w: key credential is bound to another character", ErrInconsistentUpdate)
	}
	cred.UpdatedAt = time.Now().UTC()
	current.OAuth = &cred
	current.Version++
	s.credentials[accountID] = current
	return current, nil
}

func (s *memoryAccountStore) SetKeyCredential(_ context.Context, accountID string, cred KeyCredential) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[accountID]; !ok || account.DeletedAt != nil {
		return Credential{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, accountID)
	}
	current := s.credentials[accountID]
	if current.OAuth != nil && current.OAuth.Identity.CharacterID != cred.Identity.CharacterID {
		return Credential{}, fmt.Errorf("%w: oauth credential is bound to another character", ErrInconsistentUpdate)
	}
	cred.UpdatedAt = time.Now().UTC()
	current.Key = &cred
	current.Version++
	s.credentials[accountID] = current
	return current, nil
}

func (s *memoryAccountStore) ClearCredential(_ context.Context, accountID string, kind CredentialKind) (Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if account, ok := s.accounts[accountID]; !ok || account.DeletedAt != nil {
		return Credential{}, fmt.Errorf("%w: id %q", ErrAccountNotFound, accountID)
	}
	current := s.credentials[accountID]
	switch kind {
	case CredentialKindKey:
		current.Key = nil
	case CredentialKindOAuth:
		current.OAuth = nil
	}
	current.Version++
	s.credentials[accountID] = current
	return current, nil
}

// memoryTrackerStore keeps the single-flight index the SQL store gets from
// its unique constraint.
type memoryTrackerStore struct {
	mu         sync.Mutex
	byID       map[string]Tracker
	unfinished map[string]string
	created    time.Time
}

func newMemoryTrackerStore() *memoryTrackerStore {
	return &memoryTrackerStore{
		byID:       map[string]Tracker{},
		unfinished: map[string]string{},
		created:    time.Now().UTC(),
	}
}

func (s *memoryTrackerStore) CreateOrGetUnfinished(_ context.Context, scope TrackerScope) (Tracker, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id, ok := s.unfinished[scope.Key()]; ok {
		return s.byID[id], false, nil
	}
	s.created = s.created.Add(time.Millisecond)
	tracker := Tracker{
		ID:        uuid.NewString(),
		Family:    scope.Family,
		AccountID: scope.AccountID,
		Endpoint:  scope.Endpoint,
		CreatedAt: s.created,
	}
	s.byID[tracker.ID] = tracker
	s.unfinished[scope.Key()] = tracker.ID
	return tracker, true, nil
}

func (s *memoryTrackerStore) Get(_ context.Context, id string) (Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.byID[id]
	if !ok {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerNotFound, id)
	}
	return tracker, nil
}

func (s *memoryTrackerStore) Start(_ context.Context, id string, at time.Time) (Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.byID[id]
	if !ok {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerNotFound, id)
	}
	if tracker.Finished() {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerAlreadyFinished, id)
	}
	if tracker.SyncStart == nil {
		start := msTime(at)
		tracker.SyncStart = &start
		s.byID[id] = tracker
	}
	return tracker, nil
}

func (s *memoryTrackerStore) Finish(_ context.Context, id string, in FinishTrackerInput) (Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker, ok := s.byID[id]
	if !ok {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerNotFound, id)
	}
	if tracker.Finished() {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerAlreadyFinished, id)
	}
	end := msTime(in.At)
	if tracker.SyncStart == nil {
		tracker.SyncStart = &end
	}
	tracker.SyncEnd = &end
	tracker.Status = in.Status
	tracker.Detail = in.Detail
	s.byID[id] = tracker
	delete(s.unfinished, tracker.Scope().Key())
	return tracker, nil
}

func (s *memoryTrackerStore) ForceFinish(ctx context.Context, id string, at time.Time, detail string) (Tracker, error) {
	s.mu.Lock()
	tracker, ok := s.byID[id]
	s.mu.Unlock()
	if !ok {
		return Tracker{}, fmt.Errorf("%w: id %q", ErrTrackerNotFound, id)
	}
	if tracker.Finished() {
		return tracker, nil
	}
	return s.Finish(ctx, id, FinishTrackerInput{Status: TrackerStatusWarning, Detail: detail, At: at})
}

func (s *memoryTrackerStore) History(_ context.Context, scope TrackerScope, window HistoryWindow) ([]Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Tracker{}
	for _, tracker := range s.byID {
		if tracker.Family != scope.Family || tracker.AccountID != scope.AccountID {
			continue
		}
		if scope.Endpoint != "" && tracker.Endpoint != scope.Endpoint {
			continue
		}
		if !window.Includes(tracker) {
			continue
		}
		out = append(out, tracker)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].SyncStart.Equal(*out[j].SyncStart) {
			return out[i].SyncStart.After(*out[j].SyncStart)
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > window.Limit {
		out = out[:window.Limit]
	}
	return out, nil
}

func (s *memoryTrackerStore) ListUnfinished(_ context.Context, filter UnfinishedFilter) ([]Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Tracker{}
	for _, id := range s.unfinished {
		tracker := s.byID[id]
		if filter.Family != "" && tracker.Family != filter.Family {
			continue
		}
		if filter.StartedOnly && tracker.SyncStart == nil {
			continue
		}
		out = append(out, tracker)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *memoryTrackerStore) ListFinishedSince(_ context.Context, scope TrackerScope, since time.Time) ([]Tracker, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Tracker{}
	for _, tracker := range s.byID {
		if tracker.Family != scope.Family || tracker.AccountID != scope.AccountID {
			continue
		}
		if tracker.SyncEnd == nil || tracker.SyncEnd.Before(since) {
			continue
		}
		out = append(out, tracker)
	}
	return out, nil
}

// backdate moves a started tracker so history tests can control ordering.
func (s *memoryTrackerStore) backdate(id string, start time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tracker := s.byID[id]
	start = msTime(start)
	tracker.SyncStart = &start
	if tracker.SyncEnd != nil {
		tracker.SyncEnd = &start
	}
	s.byID[id] = tracker
}

type memoryAccessKeyStore struct {
	mu   sync.Mutex
	keys map[string]AccessKey
}

func newMemoryAccessKeyStore() *memoryAccessKeyStore {
	return &memoryAccessKeyStore{keys: map[string]AccessKey{}}
}

func (s *memoryAccessKeyStore) List(_ context.Context, accountID string) ([]AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []AccessKey{}
	for _, key := range s.keys {
		if key.AccountID == accountID {
			out = append(out, key)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memoryAccessKeyStore) Get(_ context.Context, accountID string, keyID string) (AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[keyID]
	if !ok || key.AccountID != accountID {
		return AccessKey{}, fmt.Errorf("%w: id %q", ErrAccessKeyNotFound, keyID)
	}
	return key, nil
}

func (s *memoryAccessKeyStore) Create(_ context.Context, key AccessKey) (AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.nameTaken(key) {
		return AccessKey{}, fmt.Errorf("%w: %q", ErrAccessKeyNameInUse, key.Name)
	}
	now := time.Now().UTC()
	key.ID = uuid.NewString()
	key.Mask = key.Mask.Clone()
	key.CreatedAt = now
	key.UpdatedAt = now
	s.keys[key.ID] = key
	return key, nil
}

func (s *memoryAccessKeyStore) Update(_ context.Context, key AccessKey) (AccessKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.keys[key.ID]
	if !ok || current.AccountID != key.AccountID {
		return AccessKey{}, fmt.Errorf("%w: id %q", ErrAccessKeyNotFound, key.ID)
	}
	if s.nameTaken(key) {
		return AccessKey{}, fmt.Errorf("%w: %q", ErrAccessKeyNameInUse, key.Name)
	}
	key.Mask = key.Mask.Clone()
	key.CreatedAt = current.CreatedAt
	key.UpdatedAt = time.Now().UTC()
	s.keys[key.ID] = key
	return key, nil
}

func (s *memoryAccessKeyStore) Delete(_ context.Context, accountID string, keyID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key, ok := s.keys[keyID]
	if !ok || key.AccountID != accountID {
		return fmt.Errorf("%w: id %q", ErrAccessKeyNotFound, keyID)
	}
	delete(s.keys, keyID)
	return nil
}

func (s *memoryAccessKeyStore) nameTaken(key AccessKey) bool {
	for _, existing := range s.keys {
		if existing.ID != key.ID && existing.AccountID == key.AccountID && existing.Name == key.Name {
			return true
		}
	}
	return false
}

type stubAuthServer struct {
	mu        sync.Mutex
	character CharacterInfo
	tokens    TokenPair
	urlErr    error
	exchErr   error
	verifyErr error
	exchanged []CodeExchange
}

func (s *stubAuthServer) AuthorizationURL(_ context.Context, req AuthorizationRequest) (string, error) {
	if s.urlErr != nil {
		return "", s.urlErr
	}
	return "https://login.example/oauth/authorize?scope=" + strings.Join(req.Scopes, "+") + "&state=" + req.State, nil
}

func (s *stubAuthServer) ExchangeCode(_ context.Context, req CodeExchange) (TokenPair, error) {
	s.mu.Lock()
	s.exchanged = append(s.exchanged, req)
	s.mu.Unlock()
	if s.exchErr != nil {
		return TokenPair{}, s.exchErr
	}
	return s.tokens, nil
}

func (s *stubAuthServer) VerifyCharacter(context.Context, string) (CharacterInfo, error) {
	if s.verifyErr != nil {
		return CharacterInfo{}, s.verifyErr
	}
	return s.character, nil
}

type stubIdentityResolver struct {
	affiliations map[int64]int64
	corporations map[int64]string
}

func (r stubIdentityResolver) ResolveCharacter(_ context.Context, characterID int64) (CharacterAffiliation, error) {
	corporationID, ok := r.affiliations[characterID]
	if !ok {
		return CharacterAffiliation{}, fmt.Errorf("unknown character %d", characterID)
	}
	return CharacterAffiliation{CharacterID: characterID, CorporationID: corporationID}, nil
}

func (r stubIdentityResolver) ResolveCorporation(_ context.Context, corporationID int64) (CorporationInfo, error) {
	name, ok := r.corporations[corporationID]
	if !ok {
		return CorporationInfo{}, fmt.Errorf("unknown corporation %d", corporationID)
	}
	return CorporationInfo{CorporationID: corporationID, Name: name}, nil
}

type stubKeyLister struct {
	characters []KeyCharacter
	err        error
}

func (l stubKeyLister) ListKeyCharacters(context.Context, int64, string) ([]KeyCharacter, error) {
	return l.characters, l.err
}

type recordingEnqueuer struct {
	mu       sync.Mutex
	messages []*JobExecutionMessage
}

func (e *recordingEnqueuer) Enqueue(_ context.Context, msg *JobExecutionMessage) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.messages = append(e.messages, msg)
	return nil
}

func (e *recordingEnqueuer) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.messages)
}

type fixedDeriver struct{}

func (fixedDeriver) DeriveCredential(keyID string, bits accessmask.Mask, _ time.Time) (string, error) {
	return fmt.Sprintf("cred-%s-%x", keyID, []byte(bits)), nil
}

type testHarness struct {
	svc        *Service
	accounts   *memoryAccountStore
	trackers   *memoryTrackerStore
	keys       *memoryAccessKeyStore
	authServer *stubAuthServer
	enqueuer   *recordingEnqueuer
}

func newTestHarness(cfg Config, opts ...Option) (*testHarness, error) {
	h := &testHarness{
		accounts: newMemoryAccountStore(),
		trackers: newMemoryTrackerStore(),
		keys:     newMemoryAccessKeyStore(),
		authServer: &stubAuthServer{
			character: CharacterInfo{CharacterID: 42, CharacterName: "Alice"},
			tokens: TokenPair{
				AccessToken:  "access-1",
				RefreshToken: "refresh-1",
				TokenType:    "Bearer",
				ExpiresIn:    20 * time.Minute,
			},
		},
		enqueuer: &recordingEnqueuer{},
	}
	base := []Option{
		WithLoggerProvider(stubLoggerProvider{logger: stubLogger{}}),
		WithLogger(stubLogger{}),
		WithAccountStore(h.accounts),
		WithCredentialStore(h.accounts),
		WithTrackerStore(h.trackers),
		WithAccessKeyStore(h.keys),
		WithAuthorizationServer(h.authServer),
		WithIdentityResolver(stubIdentityResolver{
			affiliations: map[int64]int64{42: 7},
			corporations: map[int64]string{7: "Acme"},
		}),
		WithJobEnqueuer(h.enqueuer),
	}
	svc, err := NewService(cfg, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	h.svc = svc
	return h, nil
}

func (h *testHarness) createAccount(userID string) (Account, error) {
	return h.svc.CreateAccount(context.Background(), CreateAccountRequest{
		Caller:    Caller{UserID: userID},
		Name:      "main",
		Character: true,
	})
}

type stubLogger struct{}

func (stubLogger) Trace(string, ...any) {}
func (stubLogger) Debug(string, ...any) {}
func (stubLogger) Info(string, ...any)  {}
func (stubLogger) Warn(string, ...any)  {}
func (stubLogger) Error(string, ...any) {}
func (stubLogger) Fatal(string, ...any) {}
func (s stubLogger) WithContext(context.Context) Logger {
	return s
}

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	out := make(map[string]any, len(l.values))
	for key, value := range l.values {
		out[key] = value
	}
	return out, nil
}
