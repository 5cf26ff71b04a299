package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidTopicSpec — некорректные параметры топика.
var ErrInvalidTopicSpec = errors.New("invalid topic spec")

// TopicSpec — параметры создаваемого топика. Создаётся из конфигурации и не меняется.
type TopicSpec struct {
	Name              string
	Partitions        int
	ReplicationFactor int
}

// Validate — имя обязательно, число партиций и фактор репликации >= 1.
func (s TopicSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTopicSpec)
	}
	if s.Partitions < 1 {
		return fmt.Errorf("%w: partitions must be >= 1, got %d", ErrInvalidTopicSpec, s.Partitions)
	}
	if s.ReplicationFactor < 1 {
		return fmt.Errorf("%w: replication factor must be >= 1, got %d", ErrInvalidTopicSpec, s.ReplicationFactor)
	}
	return nil
}
