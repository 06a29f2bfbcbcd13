package poller

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/commvault-security/securityiq-connector/internal/cases"
	"github.com/commvault-security/securityiq-connector/internal/cursor"
	"github.com/commvault-security/securityiq-connector/internal/domain"
	"github.com/commvault-security/securityiq-connector/internal/platform/logger"
	"github.com/commvault-security/securityiq-connector/internal/remote"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// supportedEventCodes are the remote event codes that describe backup
// anomalies worth ingesting.
var supportedEventCodes = map[string]struct{}{
	"14:337": {},
}

const defaultBackfill = 30 * 24 * time.Hour

// EventSource is the slice of the remote service the polling engine consumes.
type EventSource interface {
	ListEvents(ctx context.Context, showMinor, showMajor, showCritical bool, fromTime, toTime int64) ([]remote.Event, error)
	GetJob(ctx context.Context, jobID string) (*remote.JobDetails, error)
	ListJobFiles(ctx context.Context, jobID string, kind remote.FileBrowseKind) ([]remote.BrowsedFile, error)
	GetSubclientContent(ctx context.Context, subclientID int) ([]string, error)
}

// CaseNotifier is notified after a case has been created.  Notification is
// best effort and never fails the poll cycle.
type CaseNotifier interface {
	CaseCreated(ctx context.Context, caseID string, req domain.CaseCreationRequest)
}

// Engine runs one bounded, idempotent poll cycle at a time.  The ingestion
// cursor is injected so that dedup state survives process restarts and can be
// shared between scheduled and manual polls.
type Engine struct {
	events   EventSource
	cursor   cursor.Store
	creator  cases.CaseCreator
	notifier CaseNotifier
	backfill time.Duration
	nowFunc  func() time.Time
}

type EngineOption func(*Engine)

func WithNotifier(notifier CaseNotifier) EngineOption {
	return func(e *Engine) {
		e.notifier = notifier
	}
}

func WithBackfill(backfill time.Duration) EngineOption {
	return func(e *Engine) {
		e.backfill = backfill
	}
}

func NewEngine(events EventSource, cursorStore cursor.Store, creator cases.CaseCreator, options ...EngineOption) *Engine {
	engine := &Engine{
		events:   events,
		cursor:   cursorStore,
		creator:  creator,
		backfill: defaultBackfill,
		nowFunc:  time.Now,
	}

	for _, option := range options {
		option(engine)
	}

	return engine
}

// Run executes one poll cycle and returns the number of cases created.  At
// most containerCount new cases are created, in remote listing order.  A
// fetch or case-creation failure stops the cycle, cases created before the
// failure stay committed.
func (e *Engine) Run(ctx context.Context, containerCount int) (int, error) {

	callDurationTimer := prometheus.NewTimer(metrics.pollCycleDuration)
	defer callDurationTimer.ObserveDuration()

	if containerCount < 1 {
		containerCount = 1
	}

	now := e.nowFunc()
	fromTime := now.Add(-e.backfill).Unix()
	toTime := now.Unix()

	events, err := e.events.ListEvents(ctx, false, true, true, fromTime, toTime)
	if err != nil {
		metrics.pollFailureCounter.Inc()
		return 0, fmt.Errorf("error retrieving events during poll: %w", err)
	}

	metrics.eventsFetchedCounter.Add(float64(len(events)))

	anomalies := make([]remote.Event, 0, len(events))
	for _, event := range events {
		if _, supported := supportedEventCodes[event.EventCodeString]; supported {
			anomalies = append(anomalies, event)
		}
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		return anomalies[i].TimeSource < anomalies[j].TimeSource
	})

	logger.Log.WithFields(logrus.Fields{
		"total_events":  len(events),
		"anomaly_count": len(anomalies),
	}).Debug("Fetched remote events")

	created := 0
	for _, event := range anomalies {
		if created == containerCount {
			break
		}

		remoteID := strconv.FormatInt(event.ID, 10)

		// skip already-ingested events before the per-event remote lookups
		ingested, err := e.cursor.IsIngested(ctx, remoteID)
		if err != nil {
			metrics.pollFailureCounter.Inc()
			return created, fmt.Errorf("ingestion cursor failure for event %s: %w", remoteID, err)
		}
		if ingested {
			metrics.duplicateSkipCounter.Inc()
			continue
		}

		record, fields, ok, err := e.buildAlertRecord(ctx, event)
		if err != nil {
			metrics.pollFailureCounter.Inc()
			return created, fmt.Errorf("error building alert record for event %d: %w", event.ID, err)
		}
		if !ok {
			continue
		}

		claimed, err := e.cursor.TryMark(ctx, record.RemoteID)
		if err != nil {
			metrics.pollFailureCounter.Inc()
			return created, fmt.Errorf("ingestion cursor failure for event %s: %w", record.RemoteID, err)
		}
		if !claimed {
			metrics.duplicateSkipCounter.Inc()
			continue
		}

		caseRequest := domain.CaseCreationRequest{
			Title:          record.Title,
			Description:    record.Description,
			Severity:       record.Severity,
			SourceRecordID: record.RemoteID,
			Fields:         fields,
		}

		caseID, err := e.creator.CreateCase(ctx, caseRequest)
		if err != nil {
			// release the claim so a later poll can retry this record
			if unmarkErr := e.cursor.Unmark(ctx, record.RemoteID); unmarkErr != nil {
				logger.Log.WithFields(logrus.Fields{
					"error":     unmarkErr,
					"remote_id": record.RemoteID,
				}).Error("Unable to release ingestion cursor claim")
			}
			metrics.pollFailureCounter.Inc()
			return created, fmt.Errorf("case creation failed for event %s: %w", record.RemoteID, err)
		}

		created++
		metrics.casesCreatedCounter.Inc()

		logger.Log.WithFields(logrus.Fields{
			"case_id":   caseID,
			"remote_id": record.RemoteID,
			"severity":  record.Severity,
		}).Info("Created case for remote alert")

		if e.notifier != nil {
			e.notifier.CaseCreated(ctx, caseID, caseRequest)
		}
	}

	return created, nil
}

// buildAlertRecord normalizes one remote event into an AlertRecord plus the
// case fields derived from it.  The bool result is false when the event does
// not describe an ingestable anomaly.  An error is only returned for remote
// failures, which abort the cycle.
func (e *Engine) buildAlertRecord(ctx context.Context, event remote.Event) (domain.AlertRecord, map[string]interface{}, bool, error) {

	details, ok := parseIncidentDetails(event.Description)
	if !ok {
		return domain.AlertRecord{}, nil, false, nil
	}

	// Only the high-confidence anomaly classes become cases
	if details.anomalyType != anomalyFileType && details.anomalyType != anomalyThreatAnalysis {
		return domain.AlertRecord{}, nil, false, nil
	}

	job, err := e.events.GetJob(ctx, details.jobID)
	if err != nil {
		return domain.AlertRecord{}, nil, false, err
	}
	if job == nil {
		logger.Log.WithFields(logrus.Fields{"job_id": details.jobID}).Debug("Skipping alert with invalid job")
		return domain.AlertRecord{}, nil, false, nil
	}

	var flaggedFiles []string
	var scannedFolders []string
	if job.SubclientID != 0 {
		browseKind := remote.BrowseMimeFiles
		if details.anomalyType == anomalyThreatAnalysis {
			browseKind = remote.BrowseInfectedFiles
		}

		files, err := e.events.ListJobFiles(ctx, details.jobID, browseKind)
		if err != nil {
			return domain.AlertRecord{}, nil, false, err
		}
		for _, file := range files {
			if file.Path != "" {
				flaggedFiles = append(flaggedFiles, file.Path)
			}
		}

		scannedFolders, err = e.events.GetSubclientContent(ctx, job.SubclientID)
		if err != nil {
			return domain.AlertRecord{}, nil, false, err
		}
	}

	detectedAt := time.Unix(event.TimeSource, 0).UTC()

	raw, _ := json.Marshal(event)

	record := domain.AlertRecord{
		RemoteID:    strconv.FormatInt(event.ID, 10),
		Title:       fmt.Sprintf("Suspicious File Activity Detected at %s", detectedAt.Format("02 January, 2006, 15:04:05")),
		Description: details.description,
		Severity:    details.severity,
		DetectedAt:  detectedAt,
		Raw:         raw,
	}

	return record, buildFieldMap(event, details, job, flaggedFiles, scannedFolders), true, nil
}

func buildFieldMap(event remote.Event, details incidentDetails, job *remote.JobDetails, flaggedFiles, scannedFolders []string) map[string]interface{} {

	fields := map[string]interface{}{
		"event_id":               strconv.FormatInt(event.ID, 10),
		"event_time":             time.Unix(event.TimeSource, 0).UTC().Format("2006-01-02 15:04:05"),
		"originating_program":    event.Subsystem,
		"destinationProcessName": event.Subsystem,
		"anomaly_sub_type":       details.anomalyType,
		"src":                    details.anomalyType,
		"job_id":                 details.jobID,
		"job_start_time":         time.Unix(job.JobStartTime, 0).UTC().Format("2006-01-02 15:04:05"),
		"job_end_time":           time.Unix(job.JobEndTime, 0).UTC().Format("2006-01-02 15:04:05"),
	}

	if details.originatingClient != "" {
		fields["deviceHostname"] = details.originatingClient
		fields["originating_client"] = details.originatingClient
	}
	if details.externalLink != "" {
		fields["external_link"] = details.externalLink
	}
	if details.affectedFilesCount > 0 {
		fields["affected_files_count"] = details.affectedFilesCount
	}
	if details.modifiedFilesCount > 0 {
		fields["modified_files_count"] = details.modifiedFilesCount
	}
	if details.deletedFilesCount > 0 {
		fields["deleted_files_count"] = details.deletedFilesCount
	}
	if details.renamedFilesCount > 0 {
		fields["renamed_files_count"] = details.renamedFilesCount
	}
	if details.createdFilesCount > 0 {
		fields["created_files_count"] = details.createdFilesCount
	}
	if len(flaggedFiles) > 0 {
		fields["fileName"] = flaggedFiles
	}
	if len(scannedFolders) > 0 {
		fields["scanned_folder_list"] = scannedFolders
	}

	return fields
}
