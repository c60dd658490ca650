package http

import (
	"net/http"
	"strconv"
)

type answerRequest struct {
	QuestionID int64 `json:"questionId" validate:"required,gt=0"`
	Option     int   `json:"option"` // range checked by the recorder
}

type questionRequest struct {
	Text    string   `json:"text" validate:"required,max=500"`
	Options []string `json:"options" validate:"required"`
}

func (s *Server) home(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Home.Home(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.svc.Answers.SubmitAnswer(r.Context(), currentUser(r), req.QuestionID, req.Option)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) tally(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	tally, err := s.svc.Answers.AnsweredTally(r.Context(), currentUser(r), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, tally)
}

func (s *Server) topStreaks(w http.ResponseWriter, r *http.Request) {
	limit := s.svc.LeaderboardSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxLeaderboardSize {
		limit = maxLeaderboardSize
	}
	top, err := s.svc.Answers.TopStreaks(r.Context(), limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, top)
}

func (s *Server) listQuestions(w http.ResponseWriter, r *http.Request) {
	qs, err := s.svc.Questions.ListQuestions(r.Context(), currentUser(r))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, qs)
}

func (s *Server) addQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := s.decode(r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	q, err := s.svc.Questions.AddQuestion(r.Context(), currentUser(r), req.Text, req.Options)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (s *Server) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Questions.DeleteQuestion(r.Context(), currentUser(r), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nil)
}
