package storage

import (
	"encoding/json"
	"errors"

	"agora/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGeneration(g model.GenerationRecord) ([]byte, error) {
	return json.Marshal(g)
}

func DecodeGeneration(data []byte) (model.GenerationRecord, error) {
	var generation model.GenerationRecord
	if err := json.Unmarshal(data, &generation); err != nil {
		return model.GenerationRecord{}, err
	}
	if err := checkVersion(generation.VersionedRecord); err != nil {
		return model.GenerationRecord{}, err
	}
	return generation, nil
}

func EncodeAgent(a model.AgentRecord) ([]byte, error) {
	return json.Marshal(a)
}

func DecodeAgent(data []byte) (model.AgentRecord, error) {
	var agent model.AgentRecord
	if err := json.Unmarshal(data, &agent); err != nil {
		return model.AgentRecord{}, err
	}
	if err := checkVersion(agent.VersionedRecord); err != nil {
		return model.AgentRecord{}, err
	}
	return agent, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return ErrVersionMismatch
	}
	return nil
}
