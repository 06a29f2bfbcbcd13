package remote

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// User is the subset of the remote user record the connector cares about.
type User struct {
	Email      string `json:"email"`
	UPN        string `json:"UPN"`
	EnableUser bool   `json:"enableUser"`
	UserEntity struct {
		UserID int `json:"userId"`
	} `json:"userEntity"`
}

type userListResponse struct {
	Users []User `json:"users"`
}

type genericResponse struct {
	ErrorCode    int    `json:"errorCode"`
	ErrorMessage string `json:"errorMessage"`
	Response     []struct {
		ErrorCode int `json:"errorCode"`
	} `json:"response"`
}

// Event is one remote alert/threat-indicator record as listed by the events API.
type Event struct {
	ID              int64  `json:"id"`
	TimeSource      int64  `json:"timeSource"`
	EventCodeString string `json:"eventCodeString"`
	Subsystem       string `json:"subsystem"`
	Description     string `json:"description"`
	Severity        int    `json:"severity"`
}

type eventListResponse struct {
	CommservEvents []Event `json:"commservEvents"`
}

// JobDetails is the summary of a backup job referenced from an alert.
type JobDetails struct {
	JobStartTime int64
	JobEndTime   int64
	SubclientID  int
}

type jobListResponse struct {
	TotalRecordsWithoutPaging int `json:"totalRecordsWithoutPaging"`
	Jobs                      []struct {
		JobSummary struct {
			JobStartTime int64 `json:"jobStartTime"`
			JobEndTime   int64 `json:"jobEndTime"`
			Subclient    struct {
				SubclientID int `json:"subclientId"`
			} `json:"subclient"`
		} `json:"jobSummary"`
	} `json:"jobs"`
}

type idpResponse struct {
	Enabled   bool `json:"enabled"`
	ErrorCode int  `json:"errorCode"`
	Error     struct {
		ErrorString string `json:"errorString"`
	} `json:"error"`
}

// Probe performs the lightweight connectivity check used by test_connectivity.
// Success means the endpoint is reachable and the access token was accepted.
func (c *Client) Probe(ctx context.Context) error {
	var out eventListResponse
	return c.Call(ctx, http.MethodGet, "/events?level=1", nil, &out)
}

// FindUserByEmail resolves a user by email address or UPN.  A nil user with a
// nil error means no user matched.
func (c *Client) FindUserByEmail(ctx context.Context, email string) (*User, error) {
	var out userListResponse
	if err := c.Call(ctx, http.MethodGet, "/User?level=10", nil, &out); err != nil {
		return nil, err
	}

	for i := range out.Users {
		if out.Users[i].Email == email || out.Users[i].UPN == email {
			return &out.Users[i], nil
		}
	}

	return nil, nil
}

// IsUserEnabled looks up the current enablement state of a user.
func (c *Client) IsUserEnabled(ctx context.Context, userID int) (bool, error) {
	var out userListResponse
	if err := c.Call(ctx, http.MethodGet, fmt.Sprintf("/User/%d", userID), nil, &out); err != nil {
		return false, err
	}
	if len(out.Users) == 0 {
		return false, nil
	}
	return out.Users[0].EnableUser, nil
}

// DisableUser disables the user account on the remote service.
func (c *Client) DisableUser(ctx context.Context, userID int) error {
	var out genericResponse
	if err := c.Call(ctx, http.MethodPut, fmt.Sprintf("/User/%d/Disable", userID), nil, &out); err != nil {
		return err
	}
	if len(out.Response) > 0 && out.Response[0].ErrorCode > 0 {
		return fmt.Errorf("remote service reported errorCode %d while disabling user", out.Response[0].ErrorCode)
	}
	return nil
}

type clientIdResponse struct {
	ClientID int `json:"clientId"`
}

// LookupClientID resolves a backup client name to its numeric id.  Unknown
// clients resolve to 0.
func (c *Client) LookupClientID(ctx context.Context, clientName string) (int, error) {
	var out clientIdResponse
	path := "/GetId?clientname=" + url.QueryEscape(clientName)
	if err := c.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return 0, err
	}
	if out.ClientID < 0 {
		return 0, nil
	}
	return out.ClientID, nil
}

// activity type 16 is data aging
type activityControlOption struct {
	ActivityType      int  `json:"activityType"`
	EnableActivity    bool `json:"enableActivityType"`
	EnableAfterADelay bool `json:"enableAfterADelay"`
}

type dataAgingBody struct {
	ClientProperties struct {
		Client struct {
			ClientEntity struct {
				ClientID int `json:"clientId"`
			} `json:"ClientEntity"`
		} `json:"Client"`
		ClientProps struct {
			ClientActivityControl struct {
				ActivityControlOptions []activityControlOption `json:"activityControlOptions"`
			} `json:"clientActivityControl"`
		} `json:"clientProps"`
	} `json:"clientProperties"`
}

// DisableDataAging turns off the data-aging activity for a backup client.
func (c *Client) DisableDataAging(ctx context.Context, clientID int) error {
	var body dataAgingBody
	body.ClientProperties.Client.ClientEntity.ClientID = clientID
	body.ClientProperties.ClientProps.ClientActivityControl.ActivityControlOptions = []activityControlOption{
		{ActivityType: 16, EnableActivity: false, EnableAfterADelay: false},
	}

	var out genericResponse
	if err := c.Call(ctx, http.MethodPost, fmt.Sprintf("/Client/%d", clientID), body, &out); err != nil {
		return err
	}
	if out.ErrorCode != 0 {
		if out.ErrorMessage != "" {
			return fmt.Errorf("remote service rejected data aging update: %s", out.ErrorMessage)
		}
		return fmt.Errorf("remote service rejected data aging update: errorCode %d", out.ErrorCode)
	}
	return nil
}

// GetIdentityProvider fetches the SAML identity provider state.
func (c *Client) GetIdentityProvider(ctx context.Context, providerName string) (enabled bool, err error) {
	var out idpResponse
	path := "/V4/SAML/" + url.PathEscape(providerName)
	if err := c.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	if out.Error.ErrorString != "" {
		return false, fmt.Errorf("remote service rejected identity provider lookup: %s", out.Error.ErrorString)
	}
	return out.Enabled, nil
}

type idpDisableBody struct {
	Enabled bool   `json:"enabled"`
	Type    string `json:"type"`
}

// DisableIdentityProvider disables SAML based logins for the identity provider.
func (c *Client) DisableIdentityProvider(ctx context.Context, providerName string) error {
	body := idpDisableBody{Enabled: false, Type: "SAML"}

	var out idpResponse
	path := "/V4/SAML/" + url.PathEscape(providerName)
	if err := c.Call(ctx, http.MethodPut, path, body, &out); err != nil {
		return err
	}
	if out.ErrorCode != 0 {
		return fmt.Errorf("remote service rejected identity provider update: errorCode %d", out.ErrorCode)
	}
	return nil
}

// FileBrowseKind selects which result set a job file browse asks the remote
// index for.
type FileBrowseKind int

const (
	// BrowseMimeFiles lists files whose extension/mime classification was
	// flagged during backup.
	BrowseMimeFiles FileBrowseKind = iota
	// BrowseInfectedFiles lists files flagged by threat analysis.
	BrowseInfectedFiles
)

// BrowsedFile is one file returned by a job file browse.
type BrowsedFile struct {
	Name   string
	Path   string
	Folder string
	SizeKB int64
}

type browseCriteria struct {
	Field        int      `json:"field"`
	DataOperator int      `json:"dataOperator"`
	Values       []string `json:"values"`
}

type browseWhereClause struct {
	Criteria browseCriteria `json:"criteria"`
}

type browseQuery struct {
	Type        int                 `json:"type"`
	QueryID     string              `json:"queryId"`
	WhereClause []browseWhereClause `json:"whereClause"`
	DataParam   struct {
		SortParam struct {
			Ascending bool  `json:"ascending"`
			SortBy    []int `json:"sortBy"`
		} `json:"sortParam"`
		Paging struct {
			FirstNode int `json:"firstNode"`
			PageSize  int `json:"pageSize"`
			SkipNode  int `json:"skipNode"`
		} `json:"paging"`
	} `json:"dataParam"`
}

type browseOptions struct {
	RestoreIndex              bool `json:"restoreIndex"`
	AllowInfectedFilesRestore bool `json:"allowInfectedFilesRestore,omitempty"`
}

type browseBody struct {
	OpType int `json:"opType"`
	Entity struct {
		Type int `json:"_type_"`
	} `json:"entity"`
	Options browseOptions `json:"options"`
	Queries []browseQuery `json:"queries"`
	Paths   []struct {
		Path string `json:"path"`
	} `json:"paths"`
	AdvOptions struct {
		AdvConfig struct {
			BrowseAdvancedConfigBrowseByJob struct {
				JobID int64 `json:"jobId"`
			} `json:"browseAdvancedConfigBrowseByJob"`
		} `json:"advConfig"`
	} `json:"advOptions"`
}

type browseResponse struct {
	BrowseResponses []struct {
		RespType     int `json:"respType"`
		BrowseResult struct {
			DataResultSet []struct {
				Path        string `json:"path"`
				DisplayName string `json:"displayName"`
				DisplayPath string `json:"displayPath"`
				Size        int64  `json:"size"`
			} `json:"dataResultSet"`
		} `json:"browseResult"`
	} `json:"browseResponses"`
}

func buildBrowseBody(jobID int64, kind FileBrowseKind) browseBody {
	var body browseBody
	body.OpType = 1
	body.Options.RestoreIndex = true
	body.Paths = []struct {
		Path string `json:"path"`
	}{{Path: "/**/*"}}
	body.AdvOptions.AdvConfig.BrowseAdvancedConfigBrowseByJob.JobID = jobID

	var query browseQuery
	query.DataParam.SortParam.Ascending = true
	query.DataParam.SortParam.SortBy = []int{0}
	query.DataParam.Paging.PageSize = -1

	if kind == BrowseInfectedFiles {
		body.Options.AllowInfectedFilesRestore = true
		query.QueryID = "InfectedFileList"
		query.WhereClause = []browseWhereClause{
			{Criteria: browseCriteria{Field: 151, DataOperator: 0, Values: []string{"1"}}},
		}
	} else {
		query.QueryID = "MimeFileList"
		query.WhereClause = []browseWhereClause{
			{Criteria: browseCriteria{Field: 38, DataOperator: 9, Values: []string{"file"}}},
			{Criteria: browseCriteria{Field: 147, DataOperator: 0, Values: []string{"2"}}},
		}
	}

	body.Queries = []browseQuery{query}
	return body
}

// ListJobFiles browses the files a backup job flagged, either by mime/file
// type or by threat analysis.
func (c *Client) ListJobFiles(ctx context.Context, jobID string, kind FileBrowseKind) ([]BrowsedFile, error) {

	numericJobID, err := strconv.ParseInt(jobID, 10, 64)
	if err != nil {
		return nil, nil
	}

	var out browseResponse
	if err := c.Call(ctx, http.MethodPost, "/DoBrowse", buildBrowseBody(numericJobID, kind), &out); err != nil {
		return nil, err
	}

	var files []BrowsedFile
	for _, response := range out.BrowseResponses {
		if response.RespType != 0 {
			continue
		}
		for _, result := range response.BrowseResult.DataResultSet {
			path := result.DisplayPath
			if path == "" {
				path = result.Path
			}
			files = append(files, BrowsedFile{
				Name:   result.DisplayName,
				Path:   path,
				Folder: folderOf(result.Path),
				SizeKB: result.Size,
			})
		}
	}

	return files, nil
}

func folderOf(path string) string {
	parts := strings.Split(path, "\\")
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[:len(parts)-1], "\\")
}

type subclientContentResponse struct {
	SubClientProperties []struct {
		Content []struct {
			Path string `json:"path"`
		} `json:"content"`
	} `json:"subClientProperties"`
}

// GetSubclientContent lists the content paths the subclient was configured to
// back up, the folders that were scanned during the job.
func (c *Client) GetSubclientContent(ctx context.Context, subclientID int) ([]string, error) {
	var out subclientContentResponse
	if err := c.Call(ctx, http.MethodGet, fmt.Sprintf("/Subclient/%d", subclientID), nil, &out); err != nil {
		return nil, err
	}

	if len(out.SubClientProperties) == 0 {
		return nil, nil
	}

	var paths []string
	for _, content := range out.SubClientProperties[0].Content {
		if content.Path != "" {
			paths = append(paths, content.Path)
		}
	}
	return paths, nil
}

// ListEvents fetches the current alert set for the given severity levels and
// time window (epoch seconds).
func (c *Client) ListEvents(ctx context.Context, showMinor, showMajor, showCritical bool, fromTime, toTime int64) ([]Event, error) {
	path := fmt.Sprintf(
		"/events?level=10&showInfo=false&showMinor=%t&showMajor=%t&showCritical=%t&fromTime=%d&toTime=%d",
		showMinor, showMajor, showCritical, fromTime, toTime)

	var out eventListResponse
	if err := c.Call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.CommservEvents, nil
}

// GetJob looks up the job referenced from an alert.  A nil result with a nil
// error means the job id did not resolve to a job.
func (c *Client) GetJob(ctx context.Context, jobID string) (*JobDetails, error) {
	var out jobListResponse
	if err := c.Call(ctx, http.MethodGet, "/Job/"+url.PathEscape(jobID), nil, &out); err != nil {
		return nil, err
	}
	if out.TotalRecordsWithoutPaging == 0 || len(out.Jobs) == 0 {
		return nil, nil
	}

	summary := out.Jobs[0].JobSummary
	return &JobDetails{
		JobStartTime: summary.JobStartTime,
		JobEndTime:   summary.JobEndTime,
		SubclientID:  summary.Subclient.SubclientID,
	}, nil
}
