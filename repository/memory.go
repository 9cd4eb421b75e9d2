package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"movieflix/models"
)

// MemoryManager keeps all tables in process memory. It backs STORAGE=memory
// demo runs and the service tests. Transactions are serialized and applied
// to a copy of the tables that replaces the live set on success.
type MemoryManager struct {
	mu   sync.Mutex
	view *memoryView
}

func NewMemoryManager() *MemoryManager {
	m := &MemoryManager{}
	m.view = &memoryView{lock: &m.mu, state: newMemoryState()}
	return m
}

func (m *MemoryManager) Users() UserRepository { return memoryUsers{m.view} }
func (m *MemoryManager) Passcodes() PasscodeRepository { return memoryPasscodes{m.view} }
func (m *MemoryManager) Payments() PaymentRepository { return memoryPayments{m.view} }
func (m *MemoryManager) Subscriptions() SubscriptionRepository { return memorySubscriptions{m.view} }

func (m *MemoryManager) Ping(context.Context) error { return nil }

func (m *MemoryManager) WithTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	tx := &memoryView{lock: noopLocker{}, state: m.view.state.clone()}
	if err := fn(ctx, memoryRepos{tx}); err != nil {
		return err
	}
	m.view.state = tx.state
	return nil
}

type memoryRepos struct {
	view *memoryView
}

func (r memoryRepos) Users() UserRepository { return memoryUsers{r.view} }
func (r memoryRepos) Passcodes() PasscodeRepository { return memoryPasscodes{r.view} }
func (r memoryRepos) Payments() PaymentRepository { return memoryPayments{r.view} }
func (r memoryRepos) Subscriptions() SubscriptionRepository { return memorySubscriptions{r.view} }

type noopLocker struct{}

func (noopLocker) Lock()   {}
func (noopLocker) Unlock() {}

type memoryView struct {
	lock  sync.Locker
	state *memoryState
}

type memoryState struct {
	users         map[int64]models.User
	passcodes     map[int64]models.Passcode
	payments      map[int64]models.Payment
	subscriptions map[int64]models.Subscription

	userSeq, passcodeSeq, paymentSeq, subscriptionSeq int64
}

func newMemoryState() *memoryState {
	return &memoryState{
		users:         map[int64]models.User{},
		passcodes:     map[int64]models.Passcode{},
		payments:      map[int64]models.Payment{},
		subscriptions: map[int64]models.Subscription{},
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		users:           make(map[int64]models.User, len(s.users)),
		passcodes:       make(map[int64]models.Passcode, len(s.passcodes)),
		payments:        make(map[int64]models.Payment, len(s.payments)),
		subscriptions:   make(map[int64]models.Subscription, len(s.subscriptions)),
		userSeq:         s.userSeq,
		passcodeSeq:     s.passcodeSeq,
		paymentSeq:      s.paymentSeq,
		subscriptionSeq: s.subscriptionSeq,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.passcodes {
		c.passcodes[k] = v
	}
	for k, v := range s.payments {
		c.payments[k] = v
	}
	for k, v := range s.subscriptions {
		c.subscriptions[k] = v
	}
	return c
}

type memoryUsers struct{ v *memoryView }

func (r memoryUsers) Create(_ context.Context, user *models.User) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	st := r.v.state

	for _, u := range st.users {
		if u.Email == user.Email {
			return ErrDuplicateEmail
		}
	}
	st.userSeq++
	user.ID = st.userSeq
	user.CreatedAt = time.Now().UTC()
	st.users[user.ID] = *user
	return nil
}

func (r memoryUsers) GetByID(_ context.Context, id int64) (*models.User, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	u, ok := r.v.state.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r memoryUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	for _, u := range r.v.state.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryUsers) MarkVerified(_ context.Context, id int64) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	u, ok := r.v.state.users[id]
	if !ok {
		return ErrNotFound
	}
	u.IsVerified = true
	r.v.state.users[id] = u
	return nil
}

func (r memoryUsers) Update(_ context.Context, id int64, email, passwordHash string) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	st := r.v.state

	u, ok := st.users[id]
	if !ok {
		return ErrNotFound
	}
	for otherID, other := range st.users {
		if otherID != id && other.Email == email {
			return ErrDuplicateEmail
		}
	}
	u.Email = email
	u.PasswordHash = passwordHash
	st.users[id] = u
	return nil
}

type memoryPasscodes struct{ v *memoryView }

func (r memoryPasscodes) Create(_ context.Context, p *models.Passcode) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	st := r.v.state

	st.passcodeSeq++
	p.ID = st.passcodeSeq
	p.CreatedAt = time.Now().UTC()
	st.passcodes[p.ID] = *p
	return nil
}

func (r memoryPasscodes) Latest(_ context.Context, email, phone, channel string) (*models.Passcode, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	var best *models.Passcode
	for _, p := range r.v.state.passcodes {
		if p.Channel != channel {
			continue
		}
		if !(email != "" && p.Email == email) && !(phone != "" && p.Phone == phone) {
			continue
		}
		if best == nil || p.CreatedAt.After(best.CreatedAt) ||
			(p.CreatedAt.Equal(best.CreatedAt) && p.ID > best.ID) {
			candidate := p
			best = &candidate
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (r memoryPasscodes) GetByRequestID(_ context.Context, requestID string) (*models.Passcode, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	for _, p := range r.v.state.passcodes {
		if p.RequestID == requestID {
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

func (r memoryPasscodes) Delete(_ context.Context, id int64) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	if _, ok := r.v.state.passcodes[id]; !ok {
		return ErrNotFound
	}
	delete(r.v.state.passcodes, id)
	return nil
}

func (r memoryPasscodes) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	var n int64
	for id, p := range r.v.state.passcodes {
		if p.ExpiresAt.Before(now) {
			delete(r.v.state.passcodes, id)
			n++
		}
	}
	return n, nil
}

type memoryPayments struct{ v *memoryView }

func (r memoryPayments) Create(_ context.Context, p *models.Payment) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	st := r.v.state

	st.paymentSeq++
	p.ID = st.paymentSeq
	p.CreatedAt = time.Now().UTC()
	st.payments[p.ID] = *p
	return nil
}

func (r memoryPayments) Complete(_ context.Context, userID int64, orderID, paymentID string) (*models.Payment, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	for id, p := range r.v.state.payments {
		if p.GatewayOrderID != orderID || p.UserID != userID {
			continue
		}
		if p.Status != models.PaymentPending {
			return nil, ErrPaymentCompleted
		}
		pid := paymentID
		p.GatewayPaymentID = &pid
		p.Status = models.PaymentCompleted
		r.v.state.payments[id] = p
		return &p, nil
	}
	return nil, ErrNotFound
}

func (r memoryPayments) ListByUser(_ context.Context, userID int64) ([]models.Payment, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	payments := []models.Payment{}
	for _, p := range r.v.state.payments {
		if p.UserID == userID {
			payments = append(payments, p)
		}
	}
	sort.Slice(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].ID > payments[j].ID
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	return payments, nil
}

type memorySubscriptions struct{ v *memoryView }

func (r memorySubscriptions) Current(_ context.Context, userID int64, now time.Time) (*models.Subscription, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	var best *models.Subscription
	for _, s := range r.v.state.subscriptions {
		if s.UserID != userID || s.Status != models.SubscriptionActive || !s.EndDate.After(now) {
			continue
		}
		if best == nil || s.EndDate.After(best.EndDate) {
			candidate := s
			best = &candidate
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	return best, nil
}

func (r memorySubscriptions) CancelActive(_ context.Context, userID int64) (int64, error) {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()

	var n int64
	for id, s := range r.v.state.subscriptions {
		if s.UserID == userID && s.Status == models.SubscriptionActive {
			s.Status = models.SubscriptionCancelled
			r.v.state.subscriptions[id] = s
			n++
		}
	}
	return n, nil
}

func (r memorySubscriptions) Create(_ context.Context, s *models.Subscription) error {
	r.v.lock.Lock()
	defer r.v.lock.Unlock()
	st := r.v.state

	for _, existing := range st.subscriptions {
		if s.Status == models.SubscriptionActive && existing.UserID == s.UserID && existing.Status == models.SubscriptionActive {
			return ErrActiveSubscriptionExists
		}
	}
	st.subscriptionSeq++
	s.ID = st.subscriptionSeq
	s.CreatedAt = time.Now().UTC()
	st.subscriptions[s.ID] = *s
	return nil
}
