package dto

import "github.com/reservize/billing/internal/domain/event"

type EventResponse struct {
	*event.Event
}

type ListEventsResponse struct {
	Items []*EventResponse `json:"items"`
	Total int              `json:"total"`
}

func NewListEventsResponse(events []*event.Event) *ListEventsResponse {
	resp := &ListEventsResponse{Items: make([]*EventResponse, 0, len(events))}
	for _, ev := range events {
		resp.Items = append(resp.Items, &EventResponse{Event: ev})
	}
	resp.Total = len(resp.Items)
	return resp
}
