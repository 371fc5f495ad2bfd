package storage

import (
	"errors"
	"testing"

	"agora/internal/model"
)

func stampedRun(id string) model.RunRecord {
	return model.RunRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		ID:              id,
		Label:           "test",
		Seed:            42,
		Width:           10,
		Height:          10,
		Agents:          20,
	}
}

func TestRunRecordRoundTrip(t *testing.T) {
	run := stampedRun("r1")
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeRun(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.ID != run.ID || decoded.Seed != run.Seed || decoded.Agents != run.Agents {
		t.Fatalf("round trip mismatch: %+v", decoded)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	run := stampedRun("r1")
	run.CodecVersion = CurrentCodecVersion + 1
	data, err := EncodeRun(run)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeRun(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch, got %v", err)
	}
}

func TestGenerationRecordRoundTripKeepsCounts(t *testing.T) {
	generation := model.GenerationRecord{
		VersionedRecord: model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion},
		RunID:           "r1",
		Generation:      3,
		Population:      12,
		StrategyCounts:  map[string]int{"tit_for_tat": 7, "all_defect": 5},
		MovementCounts:  map[string]int{"adaptive": 12},
		AvgCooperation:  0.625,
	}
	data, err := EncodeGeneration(generation)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	decoded, err := DecodeGeneration(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.StrategyCounts["tit_for_tat"] != 7 {
		t.Fatalf("strategy counts lost: %+v", decoded.StrategyCounts)
	}
	if decoded.AvgCooperation != 0.625 {
		t.Fatalf("averages lost: %+v", decoded)
	}
}

func TestAgentRecordDecodeChecksVersion(t *testing.T) {
	agent := model.AgentRecord{ID: "a1", Strategy: "pavlov"}
	data, err := EncodeAgent(agent)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := DecodeAgent(data); !errors.Is(err, ErrVersionMismatch) {
		t.Fatalf("expected ErrVersionMismatch for unstamped record, got %v", err)
	}
}
