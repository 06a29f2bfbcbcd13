package poller

import (
	"regexp"
	"strconv"
	"strings"
)

// Anomaly types reported by the remote threat analysis
const (
	anomalyUndefined      = "Undefined"
	anomalyFileActivity   = "File Activity"
	anomalyFileType       = "File Type"
	anomalyThreatAnalysis = "Threat Analysis"
)

const (
	severityHigh   = "high"
	severityMedium = "medium"
)

// The alert description is a semi-structured text blob.  The interesting
// values are embedded as name:[value] pairs or name [value] phrases.
var (
	anomalySubTypePattern = regexp.MustCompile(`(?i)AnomalyType:\[(.*?)\]`)
	jobPattern            = regexp.MustCompile(`(?i)job \[(.*?)\]`)
	jobIdPattern          = regexp.MustCompile(`(?i)JobId:\[(.*?)\]`)
	clientPattern         = regexp.MustCompile(`(?i)client \[(.*?)\]`)
	suspiciousPattern     = regexp.MustCompile(`(?i)SuspiciousFileCount:\[(.*?)\]`)
	modifiedPattern       = regexp.MustCompile(`(?i)ModifiedFileCount:\[(.*?)\]`)
	deletedPattern        = regexp.MustCompile(`(?i)DeletedFileCount:\[(.*?)\]`)
	renamedPattern        = regexp.MustCompile(`(?i)RenamedFileCount:\[(.*?)\]`)
	createdPattern        = regexp.MustCompile(`(?i)CreatedFileCount:\[(.*?)\]`)
	hrefSingleQuote       = regexp.MustCompile(`href='(.*?)'`)
	hrefDoubleQuote       = regexp.MustCompile(`href="(.*?)"`)
)

func extractFromPatterns(message, defaultValue string, patterns ...*regexp.Regexp) string {
	for _, pattern := range patterns {
		matches := pattern.FindStringSubmatch(message)
		if len(matches) > 1 && matches[1] != "" {
			return strings.TrimSpace(matches[1])
		}
	}
	return defaultValue
}

func anomalyTypeFromID(anomalyID int) string {
	switch anomalyID {
	case 1:
		return anomalyFileActivity
	case 2:
		return anomalyFileType
	case 3:
		return anomalyThreatAnalysis
	default:
		return anomalyUndefined
	}
}

func severityForAnomalyType(anomalyType string) string {
	switch anomalyType {
	case anomalyFileType, anomalyThreatAnalysis:
		return severityHigh
	case anomalyFileActivity:
		return severityMedium
	default:
		return ""
	}
}

// formatAlertDescription strips the HTML wrapper some alert descriptions
// carry and keeps the human readable sentence.
func formatAlertDescription(message string) string {
	start := strings.Index(message, "<html>")
	end := strings.Index(message, "</html>")
	if start == -1 || end == -1 {
		return message
	}

	inner := strings.TrimSpace(message[start+len("<html>") : end])

	if from := strings.Index(inner, "Detected "); from != -1 {
		if to := strings.Index(inner, " Please click "); to != -1 {
			return inner[from:to]
		}
	}
	if from := strings.Index(inner, "Possible "); from != -1 {
		if to := strings.Index(inner, "<span style="); to != -1 {
			return inner[from:to]
		}
	}
	return message
}

// nonZeroCount parses a count extracted from the description and drops
// zero/unparseable values so that the case fields only carry real counts.
func nonZeroCount(value string) (int, bool) {
	count, err := strconv.Atoi(value)
	if err != nil || count <= 0 {
		return 0, false
	}
	return count, true
}

// incidentDetails is everything parsed out of one alert description.
type incidentDetails struct {
	anomalyType        string
	severity           string
	jobID              string
	originatingClient  string
	externalLink       string
	description        string
	affectedFilesCount int
	modifiedFilesCount int
	deletedFilesCount  int
	renamedFilesCount  int
	createdFilesCount  int
}

// parseIncidentDetails extracts the incident details from an alert
// description.  It returns false when the description does not describe a
// backup anomaly.
func parseIncidentDetails(message string) (incidentDetails, bool) {

	rawSubType := extractFromPatterns(message, "0", anomalySubTypePattern)
	anomalyID, err := strconv.Atoi(rawSubType)
	if err != nil || anomalyID == 0 {
		return incidentDetails{}, false
	}

	anomalyType := anomalyTypeFromID(anomalyID)

	jobID := extractFromPatterns(message, "0", jobPattern)
	if jobID == "0" {
		jobID = extractFromPatterns(message, "0", jobIdPattern)
	}

	details := incidentDetails{
		anomalyType:       anomalyType,
		severity:          severityForAnomalyType(anomalyType),
		jobID:             jobID,
		originatingClient: extractFromPatterns(message, "", clientPattern),
		externalLink:      extractFromPatterns(message, "", hrefSingleQuote, hrefDoubleQuote),
		description:       formatAlertDescription(message),
	}

	if count, ok := nonZeroCount(extractFromPatterns(message, "", suspiciousPattern)); ok {
		details.affectedFilesCount = count
	}
	if count, ok := nonZeroCount(extractFromPatterns(message, "", modifiedPattern)); ok {
		details.modifiedFilesCount = count
	}
	if count, ok := nonZeroCount(extractFromPatterns(message, "", deletedPattern)); ok {
		details.deletedFilesCount = count
	}
	if count, ok := nonZeroCount(extractFromPatterns(message, "", renamedPattern)); ok {
		details.renamedFilesCount = count
	}
	if count, ok := nonZeroCount(extractFromPatterns(message, "", createdPattern)); ok {
		details.createdFilesCount = count
	}

	return details, true
}
