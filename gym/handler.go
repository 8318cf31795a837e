package gym

import (
	"encoding/json"
	"errors"
	nethttp "net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/milk9111/arena/ecs/component"
	"github.com/milk9111/arena/logger"
)

// Factory builds a fresh environment for one connection.
type Factory func() (*Env, error)

type HandlerConfig struct {
	Logger *logrus.Entry
}

// Handler serves one Env per websocket connection. Each session owns its
// world, so sessions never share state.
type Handler struct {
	factory  Factory
	log      *logrus.Entry
	upgrader websocket.Upgrader
}

func NewHandler(factory Factory, cfg HandlerConfig) *Handler {
	log := cfg.Logger
	if log == nil {
		log = logger.Log.WithField("component", "gym")
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *nethttp.Request) bool {
			return true
		},
	}

	return &Handler{
		factory:  factory,
		log:      log,
		upgrader: upgrader,
	}
}

func (h *Handler) ServeHTTP(w nethttp.ResponseWriter, r *nethttp.Request) {
	h.Handle(w, r)
}

func (h *Handler) Handle(w nethttp.ResponseWriter, r *nethttp.Request) {
	env, err := h.factory()
	if err != nil {
		h.log.WithError(err).Error("failed to build environment")
		nethttp.Error(w, "environment unavailable", nethttp.StatusInternalServerError)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("upgrade failed")
		return
	}
	defer conn.Close()

	session := uuid.NewString()
	log := h.log.WithField("session", session)
	log.Info("session opened")
	defer log.Info("session closed")

	writeJSON := func(msg serverMessage) bool {
		msg.Session = session
		data, err := json.Marshal(msg)
		if err != nil {
			log.WithError(err).Error("failed to marshal response")
			return true
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.WithError(err).Debug("write failed")
			return false
		}
		return true
	}
	writeError := func(err error) bool {
		return writeJSON(serverMessage{Type: TypeError, Error: err.Error()})
	}

	if !writeJSON(serverMessage{
		Type:            TypeHello,
		Actions:         int(component.ActionCount),
		ObservationSize: component.ObservationSize,
	}) {
		return
	}

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Warn("read failed")
			}
			return
		}

		var msg clientMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			log.WithError(err).Debug("discarding malformed message")
			if !writeError(errors.New("gym: malformed message")) {
				return
			}
			continue
		}

		switch msg.Type {
		case TypeReset:
			res, err := env.Reset()
			if err != nil {
				if !writeError(err) {
					return
				}
				continue
			}
			if !writeJSON(serverMessage{Type: TypeReset, Result: &res}) {
				return
			}
		case TypeStep:
			if msg.Action == nil {
				if !writeError(ErrInvalidAction) {
					return
				}
				continue
			}
			res, err := env.Step(*msg.Action)
			if err != nil {
				if !writeError(err) {
					return
				}
				continue
			}
			if !writeJSON(serverMessage{Type: TypeStep, Result: &res}) {
				return
			}
		case TypeClose:
			conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		default:
			if !writeError(errors.New("gym: unknown message type " + msg.Type)) {
				return
			}
		}
	}
}
