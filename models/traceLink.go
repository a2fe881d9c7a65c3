package models

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TraceLink is one genealogy edge. FromLotId is empty for catch origin;
// for SELL links ToLotId holds the buyer (a sink, not a lot).
type TraceLink struct {
	ID        string        `gorm:"primaryKey;size:64" json:"id"`
	FromLotId string        `gorm:"size:64;index" json:"from_lot_id"`
	ToLotId   string        `gorm:"size:64;index;not null" json:"to_lot_id"`
	EventId   string        `gorm:"size:191;index;not null" json:"event_id"`
	Seq       int           `gorm:"not null;default:0" json:"seq"`
	Type      TraceLinkType `gorm:"size:20;not null" json:"type"`
	CreatedAt time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

func (t *TraceLink) BeforeUpdate(tx *gorm.DB) error {
	return errors.New("trace links are append-only")
}

func (t *TraceLink) BeforeDelete(tx *gorm.DB) error {
	return errors.New("trace links are append-only")
}

// AppendTraceLinks stamps ids, event id and order onto links and inserts them.
func AppendTraceLinks(tx *gorm.DB, eventId string, links []*TraceLink) error {
	if len(links) == 0 {
		return nil
	}
	for i, link := range links {
		if link.ToLotId == "" {
			return NewInternalError("trace link %d of %s has no destination", i, eventId)
		}
		link.ID = uuid.NewString()
		link.EventId = eventId
		link.Seq = i
	}
	return tx.Create(&links).Error
}

func ListTraceLinksByEvent(tx *gorm.DB, eventId string) ([]*TraceLink, error) {
	var links []*TraceLink
	if err := tx.Where("event_id = ?", eventId).Order("seq ASC").Find(&links).Error; err != nil {
		return nil, err
	}
	return links, nil
}

// LotGenealogy is the reachable graph around one lot.
type LotGenealogy struct {
	LotId      string       `json:"lot_id"`
	Upstream   []*TraceLink `json:"upstream"`
	Downstream []*TraceLink `json:"downstream"`
}

// TraceLot walks edges backwards to the catch and forwards to the sale sinks.
func TraceLot(tx *gorm.DB, lotId string) (*LotGenealogy, error) {
	if _, err := GetLot(tx, lotId); err != nil {
		return nil, err
	}
	upstream, err := walkTrace(tx, lotId, "to_lot_id", func(l *TraceLink) string { return l.FromLotId })
	if err != nil {
		return nil, err
	}
	downstream, err := walkTrace(tx, lotId, "from_lot_id", func(l *TraceLink) string {
		if l.Type == TraceLinkTypeSell {
			return ""
		}
		return l.ToLotId
	})
	if err != nil {
		return nil, err
	}
	return &LotGenealogy{LotId: lotId, Upstream: upstream, Downstream: downstream}, nil
}

func walkTrace(tx *gorm.DB, start string, column string, next func(*TraceLink) string) ([]*TraceLink, error) {
	visited := map[string]bool{start: true}
	frontier := []string{start}
	var edges []*TraceLink
	for len(frontier) > 0 {
		var links []*TraceLink
		if err := tx.Where(column+" IN ?", frontier).Order("created_at ASC, seq ASC").Find(&links).Error; err != nil {
			return nil, err
		}
		frontier = frontier[:0]
		for _, link := range links {
			edges = append(edges, link)
			id := next(link)
			if id == "" || visited[id] {
				continue
			}
			visited[id] = true
			frontier = append(frontier, id)
		}
	}
	return edges, nil
}
