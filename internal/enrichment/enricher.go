package enrichment

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const touchpointIDPrefix = "tp_"

// CategoryTable maps raw touchpoint types to categories
type CategoryTable interface {
	Category(touchpointType string) domain.Category
}

// Enricher turns a validated raw touchpoint into a complete Touchpoint
type Enricher struct {
	categories CategoryTable
	now        func() time.Time
}

// NewEnricher creates an enricher using the given category table
func NewEnricher(categories CategoryTable) *Enricher {
	return &Enricher{
		categories: categories,
		now:        time.Now,
	}
}

// TouchpointID derives the id for raw. A caller-supplied event id always
// maps to the same touchpoint id so redeliveries can be detected; otherwise
// a random id is generated.
func TouchpointID(raw *domain.RawTouchpoint) string {
	if raw.EventID == "" {
		return touchpointIDPrefix + uuid.NewString()
	}
	hash := sha256.Sum256([]byte("touchpoint|" + raw.EventID))
	return touchpointIDPrefix + hex.EncodeToString(hash[:16])
}

// Enrich builds the touchpoint in memory. Nothing is persisted here.
func (e *Enricher) Enrich(raw *domain.RawTouchpoint, id, customerID string) domain.Touchpoint {
	engagement := raw.Engagement
	if engagement.InteractionType == "" {
		engagement.InteractionType = domain.InteractionPassive
	}
	engagement.Score = EngagementScore(engagement)

	return domain.Touchpoint{
		ID:          id,
		CustomerID:  customerID,
		SessionID:   raw.SessionID,
		Type:        raw.Type,
		Channel:     raw.Channel,
		Category:    e.categories.Category(raw.Type),
		Timestamp:   raw.Timestamp,
		Engagement:  engagement,
		Value:       raw.Value,
		UTM:         ExtractUTM(raw.UTM, raw.LandingPage),
		Referrer:    raw.Referrer,
		LandingPage: raw.LandingPage,
		IPAddress:   raw.RemoteAddr,
		UserAgent:   raw.UserAgent,
		CreatedAt:   e.now().UTC(),
	}
}

// ExtractUTM fills the campaign parameters. Explicit values win; missing
// ones are read from the landing page query string and default to "".
func ExtractUTM(explicit domain.UTM, landingPage string) domain.UTM {
	utm := explicit
	if landingPage == "" {
		return utm
	}

	u, err := url.Parse(landingPage)
	if err != nil {
		return utm
	}
	q := u.Query()

	fill := func(dst *string, key string) {
		if *dst == "" {
			*dst = q.Get(key)
		}
	}
	fill(&utm.Source, "utm_source")
	fill(&utm.Medium, "utm_medium")
	fill(&utm.Campaign, "utm_campaign")
	fill(&utm.Content, "utm_content")
	fill(&utm.Term, "utm_term")

	return utm
}
