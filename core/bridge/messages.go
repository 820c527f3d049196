package bridge

import (
	"encoding/json"
	"time"

	"Bt1QPlayer/core/player"
)

// MessageType 消息类型
type MessageType string

const (
	// 服务端 -> 页面
	MsgTypeCommand MessageType = "command" // 播放器指令
	MsgTypeMedia   MessageType = "media"   // 系统媒体控件同步
	MsgTypeState   MessageType = "state"   // 会话状态快照
	MsgTypeError   MessageType = "error"   // 错误消息
	MsgTypePong    MessageType = "pong"    // 心跳响应

	// 页面 -> 服务端
	MsgTypeEvent       MessageType = "event"        // 播放器事件
	MsgTypeStatus      MessageType = "status"       // 播放进度上报
	MsgTypeMediaAction MessageType = "media_action" // 系统媒体按键
	MsgTypePing        MessageType = "ping"         // 心跳
)

// Client roles. A session has at most one player page; any number of viewers
// receive state only.
const (
	RolePlayer = "player"
	RoleViewer = "viewer"
)

// Command names understood by the player page.
const (
	CmdCreate  = "create"
	CmdLoad    = "load"
	CmdPlay    = "play"
	CmdPause   = "pause"
	CmdSeek    = "seek"
	CmdVolume  = "volume"
	CmdMute    = "mute"
	CmdUnmute  = "unmute"
	CmdDestroy = "destroy"
)

// Message WebSocket 消息结构
type Message struct {
	Type      MessageType     `json:"type"`
	SessionID string          `json:"sessionId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

// NewMessage 构造带数据的消息
func NewMessage(t MessageType, sessionID string, data interface{}) (*Message, error) {
	msg := &Message{Type: t, SessionID: sessionID, Timestamp: time.Now().UnixMilli()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		msg.Data = raw
	}
	return msg, nil
}

// Decode 解析消息数据
func (m *Message) Decode(v interface{}) error {
	if len(m.Data) == 0 {
		return ErrEmptyPayload
	}
	return json.Unmarshal(m.Data, v)
}

// CommandData 播放器指令数据
type CommandData struct {
	Name     string  `json:"name"`
	MediaID  string  `json:"videoId,omitempty"`
	Start    float64 `json:"start,omitempty"`
	Autoplay bool    `json:"autoplay,omitempty"`
	Time     float64 `json:"time,omitempty"`
	Volume   int     `json:"volume,omitempty"`
}

// EventData 播放器事件数据
type EventData struct {
	Event       string   `json:"event"`
	Code        int      `json:"code,omitempty"`
	CurrentTime *float64 `json:"currentTime,omitempty"`
	Duration    *float64 `json:"duration,omitempty"`
}

// StatusData 播放进度数据，页面在播放时定期上报
type StatusData struct {
	CurrentTime float64 `json:"currentTime"`
	Duration    float64 `json:"duration"`
}

// MediaData 系统媒体控件数据
type MediaData struct {
	Kind     string                `json:"kind"` // actions, metadata, state, position
	Actions  []player.MediaAction  `json:"actions,omitempty"`
	Metadata *player.MediaMetadata `json:"metadata,omitempty"`
	State    string                `json:"state,omitempty"`
	Duration float64               `json:"duration,omitempty"`
	Position float64               `json:"position,omitempty"`
}

// MediaActionData 系统媒体按键数据
type MediaActionData struct {
	Action   player.MediaAction `json:"action"`
	SeekTime float64            `json:"seekTime,omitempty"`
}

// ErrorData 错误消息数据
type ErrorData struct {
	Message string `json:"message"`
}
