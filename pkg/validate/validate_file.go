package validate

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/cdc_ingest/internal/ports"
)

// InputFormat — формат файла захвата.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"  // одно сообщение
	FormatJSONL InputFormat = "jsonl" // по сообщению на строку
)

// ParseFormat — разбор значения флага (регистр не важен, пусто = auto).
func ParseFormat(s string) (InputFormat, error) {
	switch f := InputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatJSONL:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// detectFormat — auto по расширению: .jsonl/.ndjson — поток, остальное — одно сообщение.
func detectFormat(path string) InputFormat {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jsonl", ".ndjson":
		return FormatJSONL
	default:
		return FormatJSON
	}
}

// ValidateFile — декодирует файл захвата: JSON как одно сообщение, JSONL как поток.
// Для одиночного сообщения ошибка декодирования возвращается как error вместе с Summary.
func ValidateFile(ctx context.Context, decoder ports.EventDecoder, filePath string, format InputFormat, ow io.Writer) (Summary, error) {
	if format == FormatAuto {
		format = detectFormat(filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return Summary{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatJSON:
		return validateSingle(decoder, file, ow)
	case FormatJSONL:
		return ValidateJSONLStream(ctx, decoder, file, ow)
	default:
		return Summary{}, fmt.Errorf("unsupported format: %s", format)
	}
}

func validateSingle(decoder ports.EventDecoder, ir io.Reader, ow io.Writer) (Summary, error) {
	var sum Summary

	raw, err := io.ReadAll(ir)
	if err != nil {
		return sum, fmt.Errorf("read file: %w", err)
	}
	event, err := decoder.Decode(raw)
	if err != nil {
		sum.reject(1, err)
		return sum, err
	}
	canonical, err := json.Marshal(event)
	if err != nil {
		return sum, fmt.Errorf("marshal event: %w", err)
	}
	if _, err := ow.Write(append(canonical, '\n')); err != nil {
		return sum, fmt.Errorf("write json: %w", err)
	}
	sum.Valid++
	return sum, nil
}
