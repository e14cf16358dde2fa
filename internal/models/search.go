package models

type SearchRequest struct {
	FromCity    string `json:"fromCity"`
	ToCity      string `json:"toCity"`
	JourneyDate string `json:"journeyDate"`
}

type SearchResult struct {
	ScheduleID     string  `json:"schedule_id"`
	Bus            Bus     `json:"bus"`
	Route          Route   `json:"route"`
	JourneyDate    string  `json:"journey_date"`
	DepartureTime  string  `json:"departure_time"`
	ArrivalTime    string  `json:"arrival_time"`
	Price          float64 `json:"price"`
	AvailableSeats int     `json:"available_seats"`
}

type SearchParams struct {
	FromCity    string `json:"from_city"`
	ToCity      string `json:"to_city"`
	JourneyDate string `json:"journey_date"`
}

type SearchResponse struct {
	Results      []SearchResult `json:"results"`
	TotalCount   int            `json:"total_count"`
	SearchParams SearchParams   `json:"search_params"`
}

func NewSearchResult(s Schedule) SearchResult {
	res := SearchResult{
		ScheduleID:     s.ID,
		JourneyDate:    s.JourneyDay(),
		DepartureTime:  s.DepartureTime,
		ArrivalTime:    s.ArrivalTime,
		Price:          s.Price,
		AvailableSeats: s.AvailableSeats,
	}
	if s.Bus != nil {
		res.Bus = *s.Bus
	}
	if s.Route != nil {
		res.Route = *s.Route
	}
	return res
}
