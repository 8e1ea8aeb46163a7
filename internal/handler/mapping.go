package handler

import (
	"github.com/BarkinBalci/attribution-service/internal/domain"
	"github.com/BarkinBalci/attribution-service/internal/dto"
)

func toRawTouchpoint(req *dto.IngestTouchpointRequest, remoteAddr, userAgent string) domain.RawTouchpoint {
	return domain.RawTouchpoint{
		EventID:    req.EventID,
		CustomerID: req.CustomerID,
		AccountID:  req.AccountID,
		SessionID:  req.SessionID,
		Type:       req.Type,
		Channel:    req.Channel,
		Timestamp:  req.Timestamp,
		Engagement: domain.Engagement{
			TimeOnPage:      req.Engagement.TimeOnPage,
			ScrollDepth:     req.Engagement.ScrollDepth,
			ClickCount:      req.Engagement.ClickCount,
			InteractionType: req.Engagement.InteractionType,
		},
		Value:       req.Value,
		UTM:         domain.UTM(req.UTM),
		Referrer:    req.Referrer,
		LandingPage: req.LandingPage,
		RemoteAddr:  remoteAddr,
		UserAgent:   userAgent,
	}
}

func toTouchpointData(tp *domain.Touchpoint) dto.TouchpointData {
	return dto.TouchpointData{
		TouchpointID: tp.ID,
		CustomerID:   tp.CustomerID,
		SessionID:    tp.SessionID,
		Type:         tp.Type,
		Channel:      tp.Channel,
		Category:     string(tp.Category),
		Timestamp:    tp.Timestamp,
		Engagement: dto.EngagementData{
			TimeOnPage:      tp.Engagement.TimeOnPage,
			ScrollDepth:     tp.Engagement.ScrollDepth,
			ClickCount:      tp.Engagement.ClickCount,
			InteractionType: tp.Engagement.InteractionType,
			Score:           tp.Engagement.Score,
		},
		Value:       tp.Value,
		UTM:         dto.UTMRequest(tp.UTM),
		Referrer:    tp.Referrer,
		LandingPage: tp.LandingPage,
		CreatedAt:   tp.CreatedAt,
	}
}

func toJourneyResponse(j *domain.Journey, m domain.JourneyMetrics) dto.JourneyResponse {
	return dto.JourneyResponse{
		CustomerID:      j.CustomerID(),
		Touchpoints:     j.Touchpoints(),
		FirstTouchpoint: j.FirstTouchpoint(),
		LastTouchpoint:  j.LastTouchpoint(),
		TouchpointCount: j.TouchpointCount(),
		TotalValue:      j.TotalValue(),
		ConversionCount: j.ConversionCount(),
		Stage:           string(j.Stage()),
		CreatedAt:       j.CreatedAt(),
		UpdatedAt:       j.UpdatedAt(),
		Metrics: dto.JourneyMetricsData{
			TouchpointCount:        m.TouchpointCount,
			DurationSeconds:        m.Duration.Seconds(),
			ConversionRate:         m.ConversionRate,
			AverageTouchpointValue: m.AverageTouchpointValue,
		},
	}
}

func toAttributionResultData(r *domain.AttributionResult) dto.AttributionResultData {
	tps := make([]dto.AttributedTouchpointData, len(r.TouchpointIDs))
	for i, id := range r.TouchpointIDs {
		tps[i] = dto.AttributedTouchpointData{TouchpointID: id}
		if i < len(r.Channels) {
			tps[i].Channel = r.Channels[i]
		}
		if i < len(r.Weights) {
			tps[i].Weight = r.Weights[i]
		}
		if i < len(r.AttributedValues) {
			tps[i].AttributedValue = r.AttributedValues[i]
		}
	}

	return dto.AttributionResultData{
		ConversionID:    r.ConversionID,
		CustomerID:      r.CustomerID,
		Model:           string(r.Model),
		ConversionValue: r.ConversionValue,
		Touchpoints:     tps,
		GeneratedAt:     r.GeneratedAt,
	}
}
