// Package catalog serves the demo JSON documents exposed per characteristic.
package catalog

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	StatusCharUUID       = "12345678-1234-5678-1234-56789abcdef1"
	UploadFailedCharUUID = "0a1b2c3d-4e5f-6a7b-8c9d-0e1f2a3b4c5d"
)

// EchoCharUUIDs answer with a document that only carries their own id.
var EchoCharUUIDs = []string{
	"6f8d0b2c-4e1a-3c5d-7b9e-0f2a4c6e8b1d",
	"8b7f1a2c-3e4d-4b8a-9c1e-2f6d7a8b9c0d",
	"1c2d3e4f-5a6b-7c8d-9e0f-1a2b3c4d5e6f",
	"9a8b7c6d-5e4f-3a2b-1c0d-9e8f7a6b5c4d",
	"2f4e6d8c-1b3a-5c7e-9d0f-2a4c6e8b1d3f",
	"7e6d5c4b-3a2f-1e0d-9c8b-7a6f5e4d3c2b",
	"3c5e7a9b-1d2f-4b6d-8e0f-3a5c7e9b1d2f",
}

// Response is the envelope every characteristic answers with.
type Response struct {
	ErrorCode int    `json:"errorcode"`
	Msg       string `json:"msg"`
	Data      any    `json:"data,omitempty"`
}

type statusData struct {
	DeviceStatus     string `json:"device_status"`
	ServerStatus     string `json:"server_status"`
	CharacteristicID string `json:"characteristic_id"`
}

type echoData struct {
	CharacteristicID string `json:"characteristic_id"`
}

// Video is one recording that failed to upload.
type Video struct {
	ID           string `json:"id"`
	PushAuthURI  string `json:"push_auth_uri"`
	Title        string `json:"title"`
	MyTeam       string `json:"myteam"`
	OpponentTeam string `json:"opponentteam"`
	Address      string `json:"address"`
	Type         string `json:"type"`
	CreatedAt    string `json:"created_at"`
	ThumbImage   string `json:"thumb_image"`
	Second       string `json:"second"`
	FinishedTime string `json:"finished_time"`
}

type uploadFailedData struct {
	Videos           []Video `json:"uploadfailed_videoes"`
	CharacteristicID string  `json:"characteristic_id"`
}

// Catalog maps characteristic ids to their payload documents.
type Catalog struct {
	DeviceStatus string
	ServerStatus string
	FailedVideos []Video
	echo         map[string]struct{}
}

func New() *Catalog {
	c := &Catalog{
		DeviceStatus: "wait",
		ServerStatus: "connect",
		FailedVideos: []Video{{
			ID:           "1",
			PushAuthURI:  "xxxx",
			Title:        "录制标题",
			MyTeam:       "我的队伍名称",
			OpponentTeam: "队伍名称",
			Address:      "比赛场所",
			Type:         "11V11",
			CreatedAt:    "2025-05-26 13:56:06",
			ThumbImage:   "xxx",
			Second:       "120",
			FinishedTime: "2025-05-26 13:56:06",
		}},
		echo: make(map[string]struct{}, len(EchoCharUUIDs)),
	}
	for _, id := range EchoCharUUIDs {
		c.echo[id] = struct{}{}
	}
	return c
}

// CharacteristicIDs lists every id with a dedicated document.
func (c *Catalog) CharacteristicIDs() []string {
	out := make([]string, 0, len(EchoCharUUIDs)+2)
	out = append(out, StatusCharUUID)
	out = append(out, EchoCharUUIDs...)
	return append(out, UploadFailedCharUUID)
}

// Payload renders the document for charID. Unknown ids get the
// "uuid not supported" envelope rather than an error.
func (c *Catalog) Payload(charID string) ([]byte, error) {
	id := strings.ToLower(strings.TrimSpace(charID))
	var resp Response
	switch {
	case id == StatusCharUUID:
		resp = ok(statusData{DeviceStatus: c.DeviceStatus, ServerStatus: c.ServerStatus, CharacteristicID: id})
	case id == UploadFailedCharUUID:
		resp = ok(uploadFailedData{Videos: c.FailedVideos, CharacteristicID: id})
	case c.isEcho(id):
		resp = ok(echoData{CharacteristicID: id})
	default:
		resp = Response{ErrorCode: 1, Msg: "uuid not supported"}
	}
	b, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("catalog: render %s: %w", id, err)
	}
	return b, nil
}

func (c *Catalog) isEcho(id string) bool {
	_, found := c.echo[id]
	return found
}

func ok(data any) Response {
	return Response{ErrorCode: 0, Msg: "success", Data: data}
}
