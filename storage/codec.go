package storage

import (
	"encoding/json"
	"errors"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r Run) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (Run, error) {
	var run Run
	if err := json.Unmarshal(data, &run); err != nil {
		return Run{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return Run{}, err
	}
	return run, nil
}

func EncodeEvaluation(e Evaluation) ([]byte, error) {
	return json.Marshal(e)
}

func DecodeEvaluation(data []byte) (Evaluation, error) {
	var eval Evaluation
	if err := json.Unmarshal(data, &eval); err != nil {
		return Evaluation{}, err
	}
	if err := checkVersion(eval.VersionedRecord); err != nil {
		return Evaluation{}, err
	}
	return eval, nil
}

func checkVersion(v VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
