package service

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"occ-api/internal/model"
	"occ-api/internal/taxcalc"
	"occ-api/pkg/pagination"
)

const maxSearchTerm = 100

var annexPattern = regexp.MustCompile(`^[IVX]+$`)

type CNAESearchResult struct {
	Items []taxcalc.Activity `json:"items"`
	Total int                `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}

// CNAEDetail is an activity plus the bracket table it is taxed with under Simples Nacional.
type CNAEDetail struct {
	taxcalc.Activity
	Brackets []taxcalc.Bracket `json:"faixas"`
}

type AnnexActivities struct {
	Annex      taxcalc.Annex      `json:"anexo"`
	Brackets   []taxcalc.Bracket  `json:"faixas"`
	Activities []taxcalc.Activity `json:"atividades"`
}

type CacheStats struct {
	Size       int      `json:"size"`
	Keys       []string `json:"keys"`
	TTLSeconds int64    `json:"ttl_seconds"`
}

type CNAEService interface {
	Search(ctx context.Context, term string, p pagination.Params) (*CNAESearchResult, error)
	GetByCode(ctx context.Context, code string) (*CNAEDetail, error)
	ByAnnex(ctx context.Context, annex string) (*AnnexActivities, error)
	CacheStats() CacheStats
	ClearCache(ctx context.Context, actor Actor) int
}

type cnaeService struct {
	ref   *taxcalc.Reference
	cache *lookupCache
	audit AuditService
}

func NewCNAEService(ref *taxcalc.Reference, ttl time.Duration, audit AuditService) CNAEService {
	return &cnaeService{ref: ref, cache: newLookupCache(ttl), audit: audit}
}

func (s *cnaeService) Search(_ context.Context, term string, p pagination.Params) (*CNAESearchResult, error) {
	term = strings.TrimSpace(term)
	if utf8.RuneCountInString(term) > maxSearchTerm {
		return nil, invalidInput("q", "search term must have at most %d characters", maxSearchTerm)
	}

	key := fmt.Sprintf("%s-%d-%d", strings.ToLower(term), p.Page, p.Limit)
	if v, ok := s.cache.get(key); ok {
		return v.(*CNAESearchResult), nil
	}

	all := s.ref.SearchActivities(term)
	res := &CNAESearchResult{Items: []taxcalc.Activity{}, Total: len(all), Page: p.Page, Limit: p.Limit}
	if p.Offset < len(all) {
		end := p.Offset + p.Limit
		if end > len(all) {
			end = len(all)
		}
		res.Items = all[p.Offset:end]
	}

	s.cache.set(key, res)
	return res, nil
}

func (s *cnaeService) GetByCode(_ context.Context, code string) (*CNAEDetail, error) {
	digits, err := normalizeCNAE("code", code)
	if err != nil {
		return nil, err
	}

	key := "code-" + digits
	if v, ok := s.cache.get(key); ok {
		return v.(*CNAEDetail), nil
	}

	activity, ok := s.ref.Classification(digits)
	if !ok {
		return nil, ErrCNAENotFound
	}
	brackets, err := s.ref.BracketsFor(activity.Annex)
	if err != nil {
		return nil, fmt.Errorf("failed to load brackets: %w", err)
	}

	detail := &CNAEDetail{Activity: activity, Brackets: brackets}
	s.cache.set(key, detail)
	return detail, nil
}

func (s *cnaeService) ByAnnex(_ context.Context, raw string) (*AnnexActivities, error) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if !annexPattern.MatchString(raw) {
		return nil, invalidInput("anexo", "annex must be a roman numeral (I to V)")
	}
	annex, err := taxcalc.ParseAnnex(raw)
	if err != nil {
		return nil, invalidInput("anexo", "annex must be a roman numeral (I to V)")
	}

	brackets, err := s.ref.BracketsFor(annex)
	if err != nil {
		return nil, fmt.Errorf("failed to load brackets: %w", err)
	}

	activities := []taxcalc.Activity{}
	for _, a := range s.ref.SearchActivities("") {
		if a.Annex == annex {
			activities = append(activities, a)
		}
	}
	return &AnnexActivities{Annex: annex, Brackets: brackets, Activities: activities}, nil
}

func (s *cnaeService) CacheStats() CacheStats {
	keys := s.cache.keys()
	return CacheStats{Size: len(keys), Keys: keys, TTLSeconds: int64(s.cache.ttl.Seconds())}
}

func (s *cnaeService) ClearCache(ctx context.Context, actor Actor) int {
	n := s.cache.clear()
	s.audit.Record(ctx, actor, model.ActionClearCNAECache, "cnae_cache", "", map[string]interface{}{"entries": n})
	return n
}

// lookupCache is a small TTL map guarded by one mutex. Expired entries are
// dropped on read and when listing keys.
type lookupCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	value     interface{}
	expiresAt time.Time
}

func newLookupCache(ttl time.Duration) *lookupCache {
	return &lookupCache{ttl: ttl, entries: make(map[string]cacheEntry), now: time.Now}
}

func (c *lookupCache) get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !c.now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

func (c *lookupCache) set(key string, value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
}

func (c *lookupCache) keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	out := make([]string, 0, len(c.entries))
	for k, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, k)
			continue
		}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (c *lookupCache) clear() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[string]cacheEntry)
	return n
}
