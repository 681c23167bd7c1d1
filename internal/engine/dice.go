package engine

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Face is one side of a hub die.
type Face string

const (
	Left  Face = "Left"
	Right Face = "Right"
	Hub   Face = "Hub"
	Dot   Face = "Dot"
	Wild  Face = "Wild"
)

// Faces lists every side of the die in a fixed order.
var Faces = [...]Face{Left, Right, Hub, Dot, Wild}

// Transfer reports whether the face moves a chip away from the roller.
func (f Face) Transfer() bool {
	return f == Left || f == Right || f == Hub
}

// Source is the randomness behind a roll. *rand.Rand satisfies it.
type Source interface {
	Intn(n int) int
}

// Roller draws n independent faces.
type Roller interface {
	Roll(n int) []Face
}

// RandomRoller draws uniformly from Faces. Safe for concurrent use.
type RandomRoller struct {
	mu  sync.Mutex
	src Source
}

func NewRandomRoller(src Source) *RandomRoller {
	if src == nil {
		src = NewRNG()
	}
	return &RandomRoller{src: src}
}

func (r *RandomRoller) Roll(n int) []Face {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Face, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Faces[r.src.Intn(len(Faces))])
	}
	return out
}

func NewRNG() *rand.Rand { return rand.New(rand.NewSource(time.Now().UnixNano())) }

// ScriptedRoller replays a fixed face sequence, then falls back to Dot.
type ScriptedRoller struct {
	mu    sync.Mutex
	faces []Face
	pos   int
}

func NewScriptedRoller(faces ...Face) *ScriptedRoller {
	return &ScriptedRoller{faces: faces}
}

func (s *ScriptedRoller) Roll(n int) []Face {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Face, 0, n)
	for i := 0; i < n; i++ {
		if s.pos < len(s.faces) {
			out = append(out, s.faces[s.pos])
			s.pos++
			continue
		}
		out = append(out, Dot)
	}
	return out
}

// Push appends faces to the end of the script.
func (s *ScriptedRoller) Push(faces ...Face) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faces = append(s.faces, faces...)
}

// Remaining is the number of scripted faces not yet drawn.
func (s *ScriptedRoller) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.faces) - s.pos
}

// MaxScriptRepeat bounds the count prefix of a single script token.
const MaxScriptRepeat = 999

var faceTokenRe = regexp.MustCompile(`(?i)^\s*(\d+)?\s*x?\s*(left|right|hub|center|dot|dottt|wild|[lrhcdw])\s*$`)

// ParseFace accepts a face name or its initial, case-insensitive.
// "Center" and "Dottt" are accepted as older spellings of Hub and Dot.
func ParseFace(s string) (Face, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "left", "l":
		return Left, nil
	case "right", "r":
		return Right, nil
	case "hub", "h", "center", "c":
		return Hub, nil
	case "dot", "d", "dottt":
		return Dot, nil
	case "wild", "w":
		return Wild, nil
	}
	return "", fmt.Errorf("unknown face %q", s)
}

// ParseScript parses a dice script such as "hub dot wild" or "3xW, L".
// Tokens are separated by commas or whitespace; an optional count prefix repeats a face.
func ParseScript(expr string) ([]Face, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	tokens := strings.FieldsFunc(expr, func(r rune) bool { return r == ',' || r == ' ' || r == '\t' })
	var out []Face
	for _, tok := range tokens {
		m := faceTokenRe.FindStringSubmatch(tok)
		if m == nil {
			return nil, fmt.Errorf("bad dice token %q", tok)
		}
		f, err := ParseFace(m[2])
		if err != nil {
			return nil, err
		}
		count := 1
		if m[1] != "" {
			count, err = strconv.Atoi(m[1])
			if err != nil {
				return nil, fmt.Errorf("bad repeat count in %q: %w", tok, err)
			}
			if count < 1 || count > MaxScriptRepeat {
				return nil, fmt.Errorf("repeat count in %q must be between 1 and %d", tok, MaxScriptRepeat)
			}
		}
		for i := 0; i < count; i++ {
			out = append(out, f)
		}
	}
	return out, nil
}
