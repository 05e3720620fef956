package railroad

import (
	"errors"
	"fmt"
)

// Direction is the travel direction of a locomotive.
type Direction int

const (
	Forward  Direction = 0
	Backward Direction = 1
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Backward:
		return "backward"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Backward {
		return Forward
	}
	return Backward
}

// SwitchPosition is the state of a single track switch.
type SwitchPosition int

const (
	Straight  SwitchPosition = 0
	Diverging SwitchPosition = 1
)

func (p SwitchPosition) String() string {
	switch p {
	case Straight:
		return "straight"
	case Diverging:
		return "diverging"
	default:
		return fmt.Sprintf("position(%d)", int(p))
	}
}

// Toggle flips between straight and diverging.
func (p SwitchPosition) Toggle() SwitchPosition {
	if p == Diverging {
		return Straight
	}
	return Diverging
}

// Locomotive mirrors the resource served by a locomotive server.
type Locomotive struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Number         string    `json:"number"`
	Speed          int       `json:"speed"`
	Direction      Direction `json:"direction"`
	HeadLight      bool      `json:"headLight"`
	CabineLighting bool      `json:"cabineLighting"`
	HornSound      bool      `json:"hornSound"`
	DrivingSound   bool      `json:"drivingSound"`
}

// SwitchCount is the number of switches in a switch group.
const SwitchCount = 4

// SwitchGroup mirrors the resource served by a switch server.
type SwitchGroup struct {
	ID           string         `json:"id"`
	SwitchTrack1 SwitchPosition `json:"switchTrack1"`
	SwitchTrack2 SwitchPosition `json:"switchTrack2"`
	SwitchTrack3 SwitchPosition `json:"switchTrack3"`
	SwitchTrack4 SwitchPosition `json:"switchTrack4"`
}

// Track returns the position of switch n (1-based).
func (g SwitchGroup) Track(n int) (SwitchPosition, error) {
	switch n {
	case 1:
		return g.SwitchTrack1, nil
	case 2:
		return g.SwitchTrack2, nil
	case 3:
		return g.SwitchTrack3, nil
	case 4:
		return g.SwitchTrack4, nil
	}
	return Straight, fmt.Errorf("switch %d out of range 1..%d", n, SwitchCount)
}

// SetTrack sets the position of switch n (1-based).
func (g *SwitchGroup) SetTrack(n int, p SwitchPosition) error {
	switch n {
	case 1:
		g.SwitchTrack1 = p
	case 2:
		g.SwitchTrack2 = p
	case 3:
		g.SwitchTrack3 = p
	case 4:
		g.SwitchTrack4 = p
	default:
		return fmt.Errorf("switch %d out of range 1..%d", n, SwitchCount)
	}
	return nil
}

// Server describes a locomotive or switch server listed by a directory.
// Two servers are the same server when their IDs match.
type Server struct {
	ID      string `json:"id"`
	RestURL string `json:"restURL"`
}

// Same reports whether s and other identify the same server.
func (s Server) Same(other Server) bool {
	return s.ID == other.ID
}

// Revision is the entity tag a server attached to a fetched resource. It is
// empty when the server does not support conditional writes.
type Revision string

var (
	// ErrConflict is returned when a conditional write lost against a newer
	// revision on the server.
	ErrConflict = errors.New("resource changed on server")
	// ErrUnassigned is returned when a resource has no server-assigned id yet.
	ErrUnassigned = errors.New("resource has no id")
)
