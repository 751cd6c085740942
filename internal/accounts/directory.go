package accounts

import (
	"sync"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/repositories"
)

// DefaultTTL bounds how stale a cached chart of accounts may get. Writes
// invalidate synchronously, so the TTL only covers out-of-band changes.
const DefaultTTL = 60 * time.Second

// Directory is a read-mostly view of the chart of accounts with a
// company-scoped cache. There is no cross-company sharing; invalidating
// one company never evicts another.
type Directory struct {
	repo repositories.AccountRepository
	ttl  time.Duration

	mu    sync.RWMutex
	cache map[string]*cacheEntry
}

type cacheEntry struct {
	accounts []*models.Account
	loadedAt time.Time
}

func NewDirectory(repo repositories.AccountRepository) *Directory {
	return &Directory{
		repo:  repo,
		ttl:   DefaultTTL,
		cache: make(map[string]*cacheEntry),
	}
}

// Accounts returns the company's chart of accounts, from cache when fresh.
func (d *Directory) Accounts(companyID string) ([]*models.Account, error) {
	d.mu.RLock()
	entry, ok := d.cache[companyID]
	d.mu.RUnlock()

	if ok && time.Since(entry.loadedAt) < d.ttl {
		return entry.accounts, nil
	}

	accounts, err := d.repo.GetAccountsByCompany(companyID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	d.cache[companyID] = &cacheEntry{accounts: accounts, loadedAt: time.Now()}
	d.mu.Unlock()

	return accounts, nil
}

// Get returns the account with the given id, or nil if the company has no
// such account.
func (d *Directory) Get(companyID string, accountID int64) (*models.Account, error) {
	accounts, err := d.Accounts(companyID)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return nil, nil
}

// FindBySubtype returns the first active account with the given subtype,
// or nil when the company has none configured.
func (d *Directory) FindBySubtype(companyID, subtype string) (*models.Account, error) {
	accounts, err := d.Accounts(companyID)
	if err != nil {
		return nil, err
	}
	for _, a := range accounts {
		if a.Subtype == subtype && a.IsActive {
			return a, nil
		}
	}
	return nil, nil
}

// Invalidate drops the cached chart for a company. Callers must invoke it
// synchronously after any account write for that company.
func (d *Directory) Invalidate(companyID string) {
	d.mu.Lock()
	delete(d.cache, companyID)
	d.mu.Unlock()
}
