package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gunvolt24/cdc_ingest/internal/ports"
)

// maxRejects — сколько отклонённых строк сохраняется в Summary.
const maxRejects = 100

// LineReject — отклонённое сообщение захвата (Line с 1).
type LineReject struct {
	Line int
	Err  error
}

// Summary — итог офлайн-проверки захвата.
type Summary struct {
	Valid   int
	Invalid int
	Rejects []LineReject // не больше maxRejects первых
}

func (s Summary) String() string {
	return fmt.Sprintf("%d valid / %d invalid", s.Valid, s.Invalid)
}

func (s *Summary) reject(line int, err error) {
	s.Invalid++
	if len(s.Rejects) < maxRejects {
		s.Rejects = append(s.Rejects, LineReject{Line: line, Err: err})
	}
}

// ValidateJSONLStream — декодирует поток JSONL построчно тем же декодером, что и консьюмер.
// Каждое валидное событие пишется в ow каноническим JSON одной строкой.
// Невалидные строки не прерывают проход и попадают в Summary; пустые пропускаются.
func ValidateJSONLStream(ctx context.Context, decoder ports.EventDecoder, ir io.Reader, ow io.Writer) (Summary, error) {
	var sum Summary

	scanner := bufio.NewScanner(ir)
	// широкие строки таблиц в data/old
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		raw := scanner.Bytes()
		if isBlank(raw) {
			continue
		}

		event, err := decoder.Decode(raw)
		if err != nil {
			sum.reject(line, err)
			continue
		}

		canonical, err := json.Marshal(event)
		if err != nil {
			return sum, fmt.Errorf("line %d: marshal event: %w", line, err)
		}
		if _, err := ow.Write(append(canonical, '\n')); err != nil {
			return sum, fmt.Errorf("write valid line: %w", err)
		}
		sum.Valid++
	}
	if err := scanner.Err(); err != nil {
		return sum, fmt.Errorf("scan line %d: %w", line+1, err)
	}
	return sum, nil
}

func isBlank(b []byte) bool {
	for _, c := range b {
		switch c {
		case ' ', '\t', '\r':
		default:
			return false
		}
	}
	return true
}
