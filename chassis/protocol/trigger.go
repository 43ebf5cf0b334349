package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Stage - pipeline stage a command asks for
type Stage string

const (
	StageExport     Stage = "exportTable"
	StageRunCrawler Stage = "runCrawler"
	StageReport     Stage = "report"
)

// stageAliases maps accepted discriminator values onto stages.
var stageAliases = map[string]Stage{
	"exportTable": StageExport,
	"export":      StageExport,
	"runCrawler":  StageRunCrawler,
	"report":      StageReport,
}

// ErrEmptyPayload is returned when a trigger carries no bytes at all.
var ErrEmptyPayload = errors.New("empty trigger payload")

// Trigger is either a StorageNotification or a StageCommand.
type Trigger interface {
	isTrigger()
	String() string
}

// StorageNotification - one or more records from blob storage.
// Records are kept as received; only their count decides routing.
type StorageNotification struct {
	Records []json.RawMessage
}

func (StorageNotification) isTrigger() {}

// Objects parses the records that fit the S3 event schema and skips the rest.
func (n StorageNotification) Objects() []events.S3EventRecord {
	objects := make([]events.S3EventRecord, 0, len(n.Records))
	for _, raw := range n.Records {
		var rec events.S3EventRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			continue
		}
		objects = append(objects, rec)
	}
	return objects
}

// String representation
func (n StorageNotification) String() string {
	objects := n.Objects()
	keys := make([]string, 0, len(objects))
	for _, rec := range objects {
		keys = append(keys, rec.S3.Bucket.Name+"/"+rec.S3.Object.Key)
	}
	return fmt.Sprintf("storage_notification records=%d objects=[%s]", len(n.Records), strings.Join(keys, ","))
}

// StageCommand - explicit request to run one stage.
// Raw keeps the discriminator as received, Stage is empty when it was not recognised.
type StageCommand struct {
	Stage Stage
	Raw   string
}

func (StageCommand) isTrigger() {}

// String representation
func (c StageCommand) String() string {
	return fmt.Sprintf("stage_command eventType=%s", c.Raw)
}

// Command builds a StageCommand for a known stage.
func Command(stage Stage) StageCommand {
	return StageCommand{Stage: stage, Raw: string(stage)}
}

// ParseStage maps a discriminator value onto a stage.
func ParseStage(value string) (Stage, bool) {
	stage, ok := stageAliases[value]
	return stage, ok
}

type envelope struct {
	Records   json.RawMessage `json:"Records,omitempty"`
	EventType json.RawMessage `json:"eventType,omitempty"`
}

// Decode turns a raw trigger payload into a Trigger.
// Records win over eventType when both are present, and a discriminator
// that is not a known stage name decodes to a StageCommand with an empty Stage.
func Decode(payload []byte) (Trigger, error) {
	if len(strings.TrimSpace(string(payload))) == 0 {
		return nil, ErrEmptyPayload
	}
	var env envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("decode trigger: %w", err)
	}
	var records []json.RawMessage
	if len(env.Records) > 0 && json.Unmarshal(env.Records, &records) == nil && len(records) > 0 {
		return StorageNotification{Records: records}, nil
	}
	if len(env.EventType) == 0 {
		return StageCommand{}, nil
	}
	var eventType string
	if err := json.Unmarshal(env.EventType, &eventType); err != nil {
		return StageCommand{Raw: string(env.EventType)}, nil
	}
	stage, _ := ParseStage(eventType)
	return StageCommand{Stage: stage, Raw: eventType}, nil
}

// JSON - convert command to the payload Decode accepts
func (c StageCommand) JSON() (string, error) {
	eventType, err := json.Marshal(c.Raw)
	if err != nil {
		return "", err
	}
	bin, err := json.Marshal(envelope{EventType: eventType})
	return string(bin), err
}
