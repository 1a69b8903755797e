package notify

import (
    "bytes"
    "context"
    "encoding/json"
    "fmt"
    "net/http"
)

// Payload describes a completed analysis run to the webhook receiver.
type Payload struct {
    Text         string `json:"text"`
    RunID        string `json:"run_id"`
    Status       string `json:"status"`
    SnapshotDate string `json:"snapshot_date,omitempty"`
    States       int    `json:"states,omitempty"`
    ChartPath    string `json:"chart_path,omitempty"`
    Error        string `json:"error,omitempty"`
}

// Send posts the payload to the webhook URL if configured.
func Send(ctx context.Context, url string, p Payload) error {
    if url == "" {
        return nil
    }
    buf, _ := json.Marshal(p)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(buf))
    if err != nil {
        return err
    }
    req.Header.Set("Content-Type", "application/json")
    resp, err := http.DefaultClient.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    if resp.StatusCode >= 300 {
        return fmt.Errorf("webhook status %d", resp.StatusCode)
    }
    return nil
}
