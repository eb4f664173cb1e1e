// Package resolver maps raw identifiers — tickers, company names, dates —
// to canonical graph-node identifiers.
package resolver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"b3-stock-qa/pkg/logger"
	"b3-stock-qa/pkg/utils"
)

var (
	strictTickerPattern = regexp.MustCompile(`^[A-Z]{4}\d{1,2}$`)
	looseTickerPattern  = regexp.MustCompile(`^[A-Z0-9]{4,6}$`)

	corporateSuffixes = regexp.MustCompile(
		`\b(S\.?A\.?|S/?A|CIA\.?|COMPANHIA|LTDA\.?|ON|PN|N[12]|PREF\.?|ORD\.?|NM|ED|EJ|MA|HOLDING|PARTICIPACOES|PART)\b`)
	nonAlnum        = regexp.MustCompile(`[^A-Z0-9]+`)
	unsafeIDChars   = regexp.MustCompile(`[^a-zA-Z0-9_\-.]+`)
	repeatedUnders  = regexp.MustCompile(`_+`)
	validIDStart    = regexp.MustCompile(`^[A-Za-z_]`)
	leadingTrailing = regexp.MustCompile(`^_+|_+$`)
)

// ErrInvalidTicker is returned for strings that fail ticker validation.
var ErrInvalidTicker = fmt.Errorf("invalid ticker")

// ErrInvalidDate is returned for strings no date format recognizes.
var ErrInvalidDate = fmt.Errorf("invalid date")

// Options configures a Resolver.
type Options struct {
	// AliasMapPath points at the static alias table (uppercased alias ->
	// canonical entity identifier). Empty or missing degrades company
	// resolution to the sanitize-only fallback; it is never fatal.
	AliasMapPath string
	// StrictTickers selects the exchange pattern (4 letters + 1-2 digits)
	// over the looser 4-6 alphanumerics accepted by some sources.
	StrictTickers bool
	// Now supplies the clock for relative date keywords. Defaults to
	// time.Now.
	Now func() time.Time
}

// Resolver owns the alias table and the lookup caches. It is immutable after
// construction and safe for concurrent use.
type Resolver struct {
	aliases map[string]string
	strict  bool
	now     func() time.Time
	cache   *gocache.Cache
	log     *logger.Logger
}

// New builds a Resolver, loading the alias table if one is configured.
func New(opts Options, log *logger.Logger) (*Resolver, error) {
	r := &Resolver{
		aliases: map[string]string{},
		strict:  opts.StrictTickers,
		now:     opts.Now,
		cache:   gocache.New(gocache.NoExpiration, 0),
		log:     log,
	}
	if r.now == nil {
		r.now = time.Now
	}

	if opts.AliasMapPath != "" {
		data, err := os.ReadFile(opts.AliasMapPath)
		switch {
		case err != nil:
			log.Warn("alias table unavailable, entity resolution degrades to sanitize-only",
				logger.Field("path", opts.AliasMapPath), logger.ErrorField(err))
		default:
			raw := map[string]string{}
			if err := json.Unmarshal(data, &raw); err != nil {
				return nil, fmt.Errorf("parse alias table %s: %w", opts.AliasMapPath, err)
			}
			for alias, id := range raw {
				r.aliases[strings.ToUpper(strings.TrimSpace(alias))] = id
			}
			// Index every alias under its normalized form too, so lookups
			// match regardless of punctuation, suffixes, or accents.
			for alias, id := range raw {
				if norm := r.NormalizeName(alias); norm != "" {
					if _, taken := r.aliases[norm]; !taken {
						r.aliases[norm] = id
					}
				}
			}
			log.Info("alias table loaded",
				logger.Field("path", opts.AliasMapPath),
				logger.Field("entries", len(r.aliases)))
		}
	} else {
		log.Warn("no alias table configured, entity resolution degrades to sanitize-only")
	}

	return r, nil
}

// ValidTicker reports whether a raw ticker matches the configured pattern.
func (r *Resolver) ValidTicker(ticker string) bool {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if r.strict {
		return strictTickerPattern.MatchString(t)
	}
	return looseTickerPattern.MatchString(t)
}

// ResolveSecurity maps a raw ticker to the canonical identifier of its
// company node. Invalid tickers are rejected, never coerced.
func (r *Resolver) ResolveSecurity(ticker string) (string, error) {
	t := strings.ToUpper(strings.TrimSpace(ticker))
	if !r.ValidTicker(t) {
		return "", fmt.Errorf("%w: %q", ErrInvalidTicker, ticker)
	}
	return r.SanitizeID(t), nil
}

// ResolveCompany maps a company name or alias to a canonical entity
// identifier via the alias table. The boolean reports whether the alias
// table resolved it; when false, the returned identifier is the best-effort
// sanitized form and the miss has been logged as a data-quality event.
func (r *Resolver) ResolveCompany(nameOrAlias string) (string, bool) {
	key := strings.ToUpper(strings.TrimSpace(nameOrAlias))
	if key == "" {
		return "", false
	}

	if cached, ok := r.cache.Get(key); ok {
		hit := cached.(companyHit)
		return hit.id, hit.resolved
	}

	if id, ok := r.aliases[key]; ok {
		r.cache.Set(key, companyHit{id: id, resolved: true}, gocache.NoExpiration)
		return id, true
	}
	if norm := r.NormalizeName(key); norm != "" {
		if id, ok := r.aliases[norm]; ok {
			r.cache.Set(key, companyHit{id: id, resolved: true}, gocache.NoExpiration)
			return id, true
		}
	}

	fallback := r.SanitizeID(key)
	r.log.Warn("entity alias unresolved, using sanitized identifier",
		logger.Field("input", nameOrAlias), logger.Field("fallback_id", fallback))
	r.cache.Set(key, companyHit{id: fallback, resolved: false}, gocache.NoExpiration)
	return fallback, false
}

type companyHit struct {
	id       string
	resolved bool
}

// ResolveDate parses a date string through the fixed fallback chain.
func (r *Resolver) ResolveDate(text string) (time.Time, error) {
	t, err := utils.ParseFlexibleDate(text, r.now)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, text)
	}
	return t, nil
}

// NormalizeName reduces a company name to its alias-table key: uppercase,
// diacritics stripped, corporate suffix tokens removed, non-alphanumerics
// dropped. Two names collide exactly when they agree after this pipeline.
func (r *Resolver) NormalizeName(name string) string {
	n := strings.ToUpper(strings.TrimSpace(name))
	n = utils.StripDiacritics(n)
	n = corporateSuffixes.ReplaceAllString(n, "")
	n = nonAlnum.ReplaceAllString(n, "")
	return n
}

// SanitizeID produces an identifier-safe form of an arbitrary string. The
// result is deterministic: the same input always yields the same identifier,
// including on the fallback path for inputs that sanitize to nothing valid.
func (r *Resolver) SanitizeID(input string) string {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return r.fallbackID(input)
	}

	s := utils.StripDiacritics(trimmed)
	s = strings.Join(strings.Fields(s), "_")
	s = unsafeIDChars.ReplaceAllString(s, "_")
	s = repeatedUnders.ReplaceAllString(s, "_")
	s = leadingTrailing.ReplaceAllString(s, "")

	if s == "" {
		return r.fallbackID(input)
	}
	if !validIDStart.MatchString(s) {
		id := "id_" + s
		r.log.Warn("identifier required safety prefix",
			logger.Field("input", input), logger.Field("id", id))
		return id
	}
	return s
}

// fallbackID derives a deterministic marker for inputs that cannot be
// sanitized at all. This path is a data-quality signal, not routine.
func (r *Resolver) fallbackID(input string) string {
	sum := sha1.Sum([]byte(input))
	id := "id_" + hex.EncodeToString(sum[:4])
	r.log.Warn("unsanitizable identifier replaced with deterministic marker",
		logger.Field("input", input), logger.Field("id", id))
	return id
}
