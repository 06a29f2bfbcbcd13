package cases

import (
	"context"
	"encoding/json"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"

	kafka "github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
)

// KafkaWriter is the part of the kafka producer the notifier uses.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type caseCreatedEvent struct {
	CaseID         string `json:"case_id"`
	SourceRecordID string `json:"source_record_id"`
	Title          string `json:"title"`
	Severity       string `json:"severity"`
	CreatedAt      string `json:"created_at"`
}

// KafkaCaseNotifier publishes a case-created event per ingested alert so that
// downstream consumers can react without polling the host platform.  Publish
// failures are logged but never fail the poll cycle, the case already exists.
type KafkaCaseNotifier struct {
	writer KafkaWriter
}

func NewKafkaCaseNotifier(writer KafkaWriter) *KafkaCaseNotifier {
	return &KafkaCaseNotifier{
		writer: writer,
	}
}

func (n *KafkaCaseNotifier) CaseCreated(ctx context.Context, caseID string, req domain.CaseCreationRequest) {

	event := caseCreatedEvent{
		CaseID:         caseID,
		SourceRecordID: req.SourceRecordID,
		Title:          req.Title,
		Severity:       req.Severity,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	jsonBytes, err := json.Marshal(event)
	if err != nil {
		logger.Log.WithFields(logrus.Fields{"error": err}).Error("Unable to marshal case created event")
		return
	}

	err = n.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(req.SourceRecordID),
		Value: jsonBytes,
	})

	if err != nil {
		logger.Log.WithFields(logrus.Fields{
			"error":   err,
			"case_id": caseID,
		}).Error("Unable to publish case created event")
		return
	}

	logger.Log.WithFields(logrus.Fields{"case_id": caseID}).Debug("Published case created event")
}
