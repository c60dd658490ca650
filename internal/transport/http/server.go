package http

import (
	"net/http"
	"reflect"
	"strings"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/pkg/logger"
	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
)

const (
	defaultLeaderboardSize = 20
	maxLeaderboardSize     = 100
)

// Services bundles the use cases exposed over HTTP.
type Services struct {
	Auth      *app.AuthService
	Questions *app.QuestionService
	Answers   *app.AnswerService
	Home      *app.HomeService
	Groups    *app.GroupService
	Friends   *app.FriendService

	LeaderboardSize int
}

type Server struct {
	svc      Services
	log      *logger.Logger
	validate *validator.Validate
	upgrader websocket.Upgrader
}

func NewServer(svc Services, log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNop()
	}
	if svc.LeaderboardSize <= 0 {
		svc.LeaderboardSize = defaultLeaderboardSize
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Server{
		svc:      svc,
		log:      log,
		validate: v,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router wires every route behind the request-id and logging middleware.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.withRequestID, s.withLogging)

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/auth/register", s.register).Methods(http.MethodPost)
	r.HandleFunc("/auth/login", s.login).Methods(http.MethodPost)

	api := r.NewRoute().Subrouter()
	api.Use(s.requireAuth)

	api.HandleFunc("/me", s.me).Methods(http.MethodGet)
	api.HandleFunc("/account/password", s.changePassword).Methods(http.MethodPut)
	api.HandleFunc("/account/privacy", s.updatePrivacy).Methods(http.MethodPut)

	api.HandleFunc("/home", s.home).Methods(http.MethodGet)
	api.HandleFunc("/answers", s.submitAnswer).Methods(http.MethodPost)
	api.HandleFunc("/questions/{id:[0-9]+}/tally", s.tally).Methods(http.MethodGet)
	api.HandleFunc("/leaderboard/streaks", s.topStreaks).Methods(http.MethodGet)

	api.HandleFunc("/admin/questions", s.listQuestions).Methods(http.MethodGet)
	api.HandleFunc("/admin/questions", s.addQuestion).Methods(http.MethodPost)
	api.HandleFunc("/admin/questions/{id:[0-9]+}", s.deleteQuestion).Methods(http.MethodDelete)

	api.HandleFunc("/friends", s.friends).Methods(http.MethodGet)
	api.HandleFunc("/friends/requests", s.sendFriendRequest).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id:[0-9]+}/accept", s.acceptFriend).Methods(http.MethodPost)
	api.HandleFunc("/friends/{id:[0-9]+}", s.removeFriend).Methods(http.MethodDelete)
	api.HandleFunc("/users/search", s.searchUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id:[0-9]+}/profile", s.profile).Methods(http.MethodGet)

	api.HandleFunc("/groups", s.groups).Methods(http.MethodGet)
	api.HandleFunc("/groups", s.createGroup).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}", s.conversation).Methods(http.MethodGet)
	api.HandleFunc("/groups/{id:[0-9]+}", s.renameGroup).Methods(http.MethodPut)
	api.HandleFunc("/groups/{id:[0-9]+}/messages", s.postMessage).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/read", s.markRead).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/members", s.addMember).Methods(http.MethodPost)
	api.HandleFunc("/groups/{id:[0-9]+}/members/{userID:[0-9]+}", s.removeMember).Methods(http.MethodDelete)
	api.HandleFunc("/groups/{id:[0-9]+}/leave", s.leaveGroup).Methods(http.MethodPost)
	api.HandleFunc("/ws/groups/{id:[0-9]+}", s.serveGroupWS).Methods(http.MethodGet)

	return r
}
