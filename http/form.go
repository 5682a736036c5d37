package http

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"claimguard/apperrors"
	"claimguard/claim"
	"claimguard/ml"
	"claimguard/scoring"
)

//go:embed templates/index.html
var templates embed.FS

const (
	pageTitle       = "Insurance Fraud Detection System"
	pageDescription = "This application uses machine learning to predict the likelihood of insurance fraud based on claim characteristics."
	pageDisclaimer  = "This tool is for demonstration purposes. Always consult with fraud investigation specialists for final decisions."
)

type pageData struct {
	Title       string
	Description string
	Disclaimer  string
	Ready       bool
	Warning     string
	Reason      string
	Rows        []rowView
	Result      *resultView
	Error       *ViewError
}

type rowView struct {
	Title  string
	Groups []groupView
}

type groupView struct {
	Title  string
	Fields []fieldView
}

type fieldView struct {
	Name    string
	Label   string
	Help    string
	Control string
	Value   string
	Min     int
	Max     int
	Step    int
	Options []optionView
}

type optionView struct {
	Value    string
	Selected bool
}

type resultView struct {
	Verdict           string
	Summary           string
	Fraud             bool
	FraudPercent      string
	LegitimatePercent string
}

func parsePage() (*template.Template, error) {
	return template.ParseFS(templates, "templates/index.html")
}

func (h *Handlers) handleForm(w http.ResponseWriter, r *http.Request) {
	st := h.models.Status()

	data := pageData{
		Title:       pageTitle,
		Description: pageDescription,
		Disclaimer:  pageDisclaimer,
		Ready:       st.State == ml.StateReady.String(),
	}

	if !data.Ready {
		data.Warning, data.Reason = h.warning(st)
	} else {
		view, ok := h.sessions.Get(r)
		if !ok || !view.Values.Complete() {
			view = FormView{Values: claim.Defaults()}
		}
		data.Rows = buildRows(view.Values)
		data.Error = view.Error
		if view.Result != nil && view.Error == nil {
			data.Result = h.resultView(*view.Result)
		}
	}

	var buf bytes.Buffer
	if err := h.page.Execute(&buf, data); err != nil {
		h.logger.Error("render form", zap.Error(err))
		http.Error(w, "failed to render page", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	buf.WriteTo(w)
}

// handlePredictForm scores the submitted form and redirects back to the page.
// Every outcome replaces the session view, so an error never sits next to an
// earlier verdict.
func (h *Handlers) handlePredictForm(w http.ResponseWriter, r *http.Request) {
	view := FormView{Values: claim.Defaults()}
	if prev, ok := h.sessions.Get(r); ok && prev.Values.Complete() {
		view.Values = prev.Values
	}

	if err := r.ParseForm(); err != nil {
		view.Error = toViewError(apperrors.NewInvalidRecord("(form)", err.Error()))
		h.finish(w, r, view)
		return
	}

	rec, err := claim.Parse(r.PostForm)
	if err != nil {
		view.Error = toViewError(err)
		h.finish(w, r, view)
		return
	}
	view.Values = rec

	res, err := h.adapter.Submit(r.Context(), rec)
	if err != nil {
		view.Error = toViewError(err)
	} else {
		view.Result = &res
	}
	h.finish(w, r, view)
}

func (h *Handlers) finish(w http.ResponseWriter, r *http.Request, view FormView) {
	h.sessions.Put(w, r, view)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) warning(st ml.Status) (string, string) {
	switch st.State {
	case ml.StateLoading.String(), ml.StateUninitialized.String():
		return "Model is loading. The form will be available once it is ready.", ""
	}
	return fmt.Sprintf("Model not loaded. Please ensure '%s' is available in the application directory.", st.Path), st.Reason
}

func (h *Handlers) resultView(res scoring.Result) *resultView {
	summary := "This claim appears to be legitimate."
	if res.Fraud {
		summary = "This claim has been flagged as potentially fraudulent."
	}
	return &resultView{
		Verdict:           res.Verdict(),
		Summary:           summary,
		Fraud:             res.Fraud,
		FraudPercent:      h.printer.Sprintf("%.1f%%", res.FraudProbability),
		LegitimatePercent: h.printer.Sprintf("%.1f%%", res.LegitimateProbability),
	}
}

func toViewError(err error) *ViewError {
	appErr := asAppError(err)
	return &ViewError{Message: appErr.Message, Details: appErr.Details}
}

func buildRows(rec claim.Record) []rowView {
	values := rec.FormValues()
	layout := claim.Layout()
	rows := make([]rowView, 0, len(layout))
	for _, row := range layout {
		rv := rowView{Title: row.Title}
		for _, g := range row.Groups {
			gv := groupView{Title: g.Title}
			for _, f := range claim.GroupFields(g.ID) {
				gv.Fields = append(gv.Fields, buildField(f, values[f.Name]))
			}
			rv.Groups = append(rv.Groups, gv)
		}
		rows = append(rows, rv)
	}
	return rows
}

func buildField(f claim.Field, value string) fieldView {
	fv := fieldView{
		Name:    f.Name,
		Label:   f.Label,
		Help:    f.Help,
		Control: string(f.Control),
		Value:   value,
		Min:     f.Min,
		Max:     f.Max,
		Step:    f.Step,
	}
	switch f.Kind {
	case claim.KindCategory:
		for _, opt := range f.Options {
			fv.Options = append(fv.Options, optionView{Value: opt, Selected: opt == value})
		}
	case claim.KindChoice:
		for _, c := range f.Choices {
			s := strconv.Itoa(c)
			fv.Options = append(fv.Options, optionView{Value: s, Selected: s == value})
		}
	}
	return fv
}
