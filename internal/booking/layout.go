package booking

import "strconv"

const seatsPerRow = 4

var seatLetters = []string{"A", "B", "C", "D"}

// SeatLayout labels totalSeats seats row by row: 1A 1B 1C 1D, 2A ...
// The last row may be short.
func SeatLayout(totalSeats int) [][]string {
	layout := [][]string{}
	for i := 0; i < totalSeats; i++ {
		if i%seatsPerRow == 0 {
			layout = append(layout, make([]string, 0, seatsPerRow))
		}
		layout[len(layout)-1] = append(layout[len(layout)-1], seatLabel(i))
	}
	return layout
}

func seatLabel(index int) string {
	return strconv.Itoa(index/seatsPerRow+1) + seatLetters[index%seatsPerRow]
}

// seatInLayout accepts only the exact labels SeatLayout produces, so "01A"
// or "+1A" never alias the claim on "1A".
func seatInLayout(seat string, totalSeats int) bool {
	if len(seat) < 2 {
		return false
	}
	row, err := strconv.Atoi(seat[:len(seat)-1])
	if err != nil || row < 1 {
		return false
	}
	for col, letter := range seatLetters {
		if seat[len(seat)-1:] != letter {
			continue
		}
		index := (row-1)*seatsPerRow + col
		return index < totalSeats && seatLabel(index) == seat
	}
	return false
}

func unknownSeats(seats []string, totalSeats int) []string {
	var unknown []string
	for _, seat := range seats {
		if !seatInLayout(seat, totalSeats) {
			unknown = append(unknown, seat)
		}
	}
	return unknown
}
