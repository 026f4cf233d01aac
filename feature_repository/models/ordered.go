package models

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// FeatureIndex is the "features" listing in the order the service sent its keys.
type FeatureIndex []FeatureRecord

func (f *FeatureIndex) UnmarshalJSON(data []byte) error {
	records := FeatureIndex{}
	err := decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var info FeatureInfo
		if err := dec.Decode(&info); err != nil {
			return err
		}
		records = append(records, FeatureRecord{ID: key, Name: info.Name, Author: info.Author, Inputs: info.Inputs})
		return nil
	})
	if err != nil {
		return err
	}
	*f = records
	return nil
}

// CandidateList is the "inspect" result in the order the service sent its keys.
type CandidateList []NewFeatureCandidate

func (c *CandidateList) UnmarshalJSON(data []byte) error {
	candidates := CandidateList{}
	err := decodeOrderedObject(data, func(key string, dec *json.Decoder) error {
		var inputs []string
		if err := dec.Decode(&inputs); err != nil {
			return err
		}
		candidates = append(candidates, NewFeatureCandidate{Name: key, Inputs: inputs})
		return nil
	})
	if err != nil {
		return err
	}
	*c = candidates
	return nil
}

// decodeOrderedObject walks a JSON object key by key; value decodes the value of each key from dec.
// A JSON null is an empty object.
func decodeOrderedObject(data []byte, value func(key string, dec *json.Decoder) error) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	token, err := dec.Token()
	if err != nil {
		return err
	}
	if token == nil {
		return nil
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected a JSON object, got %v", token)
	}

	for dec.More() {
		token, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected an object key, got %v", token)
		}
		if err := value(key, dec); err != nil {
			return fmt.Errorf("error decoding %q: %w", key, err)
		}
	}

	if _, err := dec.Token(); err != nil {
		return err
	}
	return nil
}
