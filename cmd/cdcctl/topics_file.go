package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/Gunvolt24/cdc_ingest/internal/domain"
	"gopkg.in/yaml.v3"
)

// topicEntry — параметры одного топика в YAML; нули заменяются значениями флагов.
type topicEntry struct {
	Partitions  int `yaml:"partitions"`
	Replication int `yaml:"replication"`
}

type topicsFile struct {
	Topics map[string]topicEntry `yaml:"topics"`
}

// loadTopicsFile — читает файл вида
//
//	topics:
//	  tidb_changes:
//	    partitions: 3
//	    replication: 1
//
// и возвращает спецификации, отсортированные по имени.
func loadTopicsFile(path string, defaults domain.TopicSpec) ([]domain.TopicSpec, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return parseTopics(content, defaults)
}

func parseTopics(content []byte, defaults domain.TopicSpec) ([]domain.TopicSpec, error) {
	var tf topicsFile
	if err := yaml.Unmarshal(content, &tf); err != nil {
		return nil, fmt.Errorf("invalid yaml: %w", err)
	}
	if len(tf.Topics) == 0 {
		return nil, fmt.Errorf("no topics defined")
	}

	names := make([]string, 0, len(tf.Topics))
	for name := range tf.Topics {
		names = append(names, name)
	}
	sort.Strings(names)

	specs := make([]domain.TopicSpec, 0, len(names))
	for _, name := range names {
		e := tf.Topics[name]
		spec := domain.TopicSpec{Name: name, Partitions: e.Partitions, ReplicationFactor: e.Replication}
		if spec.Partitions == 0 {
			spec.Partitions = defaults.Partitions
		}
		if spec.ReplicationFactor == 0 {
			spec.ReplicationFactor = defaults.ReplicationFactor
		}
		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("topic %q: %w", name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
