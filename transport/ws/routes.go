package ws

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/samber/lo"

	"team-chat/domain"
)

// Routes builds the HTTP surface: the websocket upgrade plus the
// small read-side API (history, presence roster, search, teams).
func (g *Gateway) Routes() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/ws", g.HandleWebSocket).Methods(http.MethodGet)
	r.HandleFunc("/api/history", g.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/online", g.handleOnline).Methods(http.MethodGet)
	r.HandleFunc("/api/teams/{id}/online", g.handleTeamOnline).Methods(http.MethodGet)
	r.HandleFunc("/api/teams", g.handleCreateTeam).Methods(http.MethodPost)
	r.HandleFunc("/api/search", g.handleSearch).Methods(http.MethodGet)
	return r
}

type messageDTO struct {
	ID        string `json:"id"`
	Sender    string `json:"sender"`
	Group     string `json:"group"`
	Content   string `json:"content"`
	Type      string `json:"type"`
	Lang      string `json:"lang,omitempty"`
	CreatedAt string `json:"created_at"`
	Delivered bool   `json:"delivered"`
}

func toDTO(msg domain.Message) messageDTO {
	return messageDTO{
		ID:        msg.ID.String(),
		Sender:    string(msg.SenderID),
		Group:     string(msg.Group),
		Content:   msg.Content,
		Type:      string(msg.Type),
		Lang:      msg.Lang,
		CreatedAt: msg.CreatedAt.Format(time.RFC3339Nano),
		Delivered: msg.Delivered,
	}
}

func (g *Gateway) handleHistory(w http.ResponseWriter, r *http.Request) {
	group := r.URL.Query().Get("group")
	if group == "" {
		http.Error(w, "missing group", http.StatusBadRequest)
		return
	}
	var cursor *string
	if c := r.URL.Query().Get("cursor"); c != "" {
		cursor = &c
	}

	messages, next, err := g.chat.History(r.Context(), domain.GroupKey(group), cursor)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{
		"messages": lo.Map(messages, func(m domain.Message, _ int) messageDTO { return toDTO(m) }),
		"cursor":   next,
	})
}

func (g *Gateway) handleOnline(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"online": g.chat.OnlineUsers()})
}

func (g *Gateway) handleTeamOnline(w http.ResponseWriter, r *http.Request) {
	teamID := mux.Vars(r)["id"]
	members, err := g.chat.OnlineTeamMembers(r.Context(), teamID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]any{"online": members})
}

type createTeamRequest struct {
	Name    string   `json:"name" validate:"required,min=1,max=128"`
	Owner   string   `json:"owner" validate:"required,min=1,max=64"`
	Members []string `json:"members"`
}

func (g *Gateway) handleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed body", http.StatusBadRequest)
		return
	}
	if err := g.validate.Struct(req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	members := lo.Map(req.Members, func(m string, _ int) domain.UserID { return domain.UserID(m) })
	team, err := g.chat.CreateTeam(r.Context(), req.Name, domain.UserID(req.Owner), members)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"id": team.ID, "group": string(team.Key())})
}

func (g *Gateway) handleSearch(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("q")
	if text == "" {
		http.Error(w, "missing q", http.StatusBadRequest)
		return
	}
	group := domain.GroupKey(r.URL.Query().Get("group"))

	hits, err := g.chat.Search(r.Context(), text, group, g.searchLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"hits": hits})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
