package server

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"propertysite/internal/database"
	"propertysite/internal/media"
	"propertysite/internal/model"
	"propertysite/internal/session"
)

// multipartMemory is the in-memory threshold for parsing upload forms;
// larger parts spill to temp files.
const multipartMemory = 32 << 20

type redirectResponse struct {
	Success  bool   `json:"success"`
	Redirect string `json:"redirect"`
}

func (s *Server) dashboardHandler() http.HandlerFunc {
	type page struct {
		Properties []model.Property
		UserName   string
		IsAdmin    bool
		CSRFToken  string
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("dashboardHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}

		var ps []model.Property
		if sess.IsAdmin() {
			ps, err = s.DB.PropertiesFind(r.Context(), database.PropertyQuery{})
		} else {
			ps, err = s.DB.PropertiesFindByRealtor(r.Context(), sess.UserID)
		}
		if err != nil {
			s.Logger.Errorf("dashboardHandler: Error finding properties for user: %s, err: %v, TraceID: %s",
				sess.UserID, err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}
		s.render(w, "manage.gohtml", page{
			Properties: ps,
			UserName:   sess.UserName,
			IsAdmin:    sess.IsAdmin(),
			CSRFToken:  s.csrfToken(sess),
		})
	}
}

func (s *Server) propertyFormPageHandler(edit bool) http.HandlerFunc {
	type page struct {
		Property  model.Property
		IsEdit    bool
		Heading   string
		Action    string
		CSRFToken string
	}
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("propertyFormPageHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.renderError(w, http.StatusInternalServerError, err)
			return
		}

		pg := page{
			IsEdit:    edit,
			Heading:   "Add Property",
			Action:    "/manage/new",
			CSRFToken: s.csrfToken(sess),
		}
		pg.Property.PriceInterval = model.PriceIntervalTotal
		pg.Property.Status = model.StatusActive
		pg.Property.ListingType = model.ListingTypeSale

		if edit {
			id := mux.Vars(r)["propertyID"]
			p, err := s.DB.PropertyFindByID(r.Context(), id)
			if err != nil {
				s.Logger.Debugf("propertyFormPageHandler: Property not found: %s, err: %v, TraceID: %s",
					id, err, tc.traceID)
				s.renderError(w, http.StatusNotFound, nil)
				return
			}
			if !sess.IsAdmin() && !p.OwnedBy(sess.UserID) {
				s.renderError(w, http.StatusForbidden, nil)
				return
			}
			pg.Property = p
			pg.Heading = "Edit Property"
			pg.Action = "/manage/edit/" + id
		}
		s.render(w, "property_form.gohtml", pg)
	}
}

func (s *Server) propertyCreateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			s.Logger.Debugf("propertyCreateHandler: Error parsing multipart form, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not read the submitted form.", http.StatusBadRequest)
			return
		}

		form, err := parsePropertyForm(r)
		if err != nil {
			s.Logger.Debugf("propertyCreateHandler: Invalid property form, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		realtorID, err := primitive.ObjectIDFromHex(sess.UserID)
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: Invalid user ID in session: %s, err: %v, TraceID: %s",
				sess.UserID, err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		mainHeaders := r.MultipartForm.File["mainImage"]
		if len(mainHeaders) == 0 {
			s.writeJsonError(w, "A main image is required.", http.StatusBadRequest)
			return
		}
		mainImage, err := media.SaveUpload(s.Config.UploadDir, media.ImageDir, "mainImage", mainHeaders[0])
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: Error saving main image, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
			return
		}

		images, err := s.saveImageUploads(r.MultipartForm.File["images"])
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: Error saving images, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
			return
		}
		videos, err := s.saveVideoUploads(r.MultipartForm.File["videos"])
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: Error saving videos, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
			return
		}

		p := model.Property{
			Title:         form.Title,
			Description:   form.Description,
			Location:      form.Location,
			Price:         form.Price,
			PriceInterval: form.PriceInterval,
			Status:        form.Status,
			ListingType:   form.ListingType,
			Beds:          form.Beds,
			Baths:         form.Baths,
			Sqft:          form.Sqft,
			Features:      parseFeatures(r.PostFormValue("features")),
			MainImage:     mainImage,
			Images:        images,
			Videos:        videos,
			Realtor:       realtorID,
		}

		id, err := s.DB.PropertyInsert(r.Context(), p)
		if err != nil {
			s.Logger.Errorf("propertyCreateHandler: Error inserting property, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("propertyCreateHandler: Property created: %s by user: %s, TraceID: %s", id, sess.UserID, tc.traceID)

		if p.Status == model.StatusActive {
			s.Featured.Invalidate()
			if objID, err := primitive.ObjectIDFromHex(id); err == nil {
				p.ID = objID
				s.dispatchNotifications(p, tc.traceID)
			}
		}

		s.writeJsonResponse(w, redirectResponse{Success: true, Redirect: "/manage"}, http.StatusOK)
	}
}

func (s *Server) propertyUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("propertyUpdateHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		id := mux.Vars(r)["propertyID"]
		p, err := s.DB.PropertyFindByID(r.Context(), id)
		if err != nil {
			s.Logger.Debugf("propertyUpdateHandler: Property not found: %s, err: %v, TraceID: %s", id, err, tc.traceID)
			s.writeJsonError(w, "Property not found.", http.StatusNotFound)
			return
		}
		if !sess.IsAdmin() && !p.OwnedBy(sess.UserID) {
			s.Logger.Debugf("propertyUpdateHandler: User %s denied update of property %s, TraceID: %s",
				sess.UserID, id, tc.traceID)
			s.writeJsonError(w, "You do not have permission to modify this property.", http.StatusForbidden)
			return
		}

		if err := r.ParseMultipartForm(multipartMemory); err != nil {
			s.Logger.Debugf("propertyUpdateHandler: Error parsing multipart form, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not read the submitted form.", http.StatusBadRequest)
			return
		}

		form, err := parsePropertyForm(r)
		if err != nil {
			s.Logger.Debugf("propertyUpdateHandler: Invalid property form, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, err.Error(), http.StatusBadRequest)
			return
		}

		wasActive := p.Status == model.StatusActive

		p.Title = form.Title
		p.Description = form.Description
		p.Location = form.Location
		p.Price = form.Price
		p.PriceInterval = form.PriceInterval
		p.Status = form.Status
		p.ListingType = form.ListingType
		p.Beds = form.Beds
		p.Baths = form.Baths
		p.Sqft = form.Sqft
		p.Features = parseFeatures(r.PostFormValue("features"))

		imageUploads, err := s.saveImageUploads(r.MultipartForm.File["images"])
		if err != nil {
			s.Logger.Errorf("propertyUpdateHandler: Error saving images, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
			return
		}
		videoUploads, err := s.saveVideoUploads(r.MultipartForm.File["videos"])
		if err != nil {
			s.Logger.Errorf("propertyUpdateHandler: Error saving videos, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
			return
		}

		imageEdit := media.Edit{
			Deletes: parseIndexList(r.PostFormValue("deletedImages")),
			Order:   parseIndexList(r.PostFormValue("imageOrder")),
		}
		videoEdit := media.Edit{
			Deletes: parseIndexList(r.PostFormValue("deletedVideos")),
			Order:   parseIndexList(r.PostFormValue("videoOrder")),
		}

		removedImages := pickByIndex(p.Images, imageEdit.Deletes)
		removedVideos := pickByIndex(p.Videos, videoEdit.Deletes)

		p.Images = media.Reconcile(p.Images, imageUploads, imageEdit)
		p.Videos = media.Reconcile(p.Videos, videoUploads, videoEdit)

		if mi := r.PostFormValue("mainImageIndex"); mi != "" {
			if idx, err := strconv.Atoi(mi); err == nil {
				p.MainImage, p.Images = media.PromoteMain(p.MainImage, p.Images, idx)
			}
		}
		if mainHeaders := r.MultipartForm.File["mainImage"]; len(mainHeaders) > 0 {
			newMain, err := media.SaveUpload(s.Config.UploadDir, media.ImageDir, "mainImage", mainHeaders[0])
			if err != nil {
				s.Logger.Errorf("propertyUpdateHandler: Error saving main image, err: %v, TraceID: %s", err, tc.traceID)
				s.writeJsonError(w, "Could not save uploaded files.", http.StatusInternalServerError)
				return
			}
			removedImages = append(removedImages, p.MainImage)
			p.MainImage = newMain
		}

		if err := s.DB.PropertyUpdate(r.Context(), p); err != nil {
			s.Logger.Errorf("propertyUpdateHandler: Error updating property: %s, err: %v, TraceID: %s",
				id, err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("propertyUpdateHandler: Property updated: %s by user: %s, TraceID: %s", id, sess.UserID, tc.traceID)

		s.removeUploads(removedImages, tc.traceID)
		s.removeUploads(videoPaths(removedVideos), tc.traceID)

		if wasActive || p.Status == model.StatusActive {
			s.Featured.Invalidate()
		}
		if !wasActive && p.Status == model.StatusActive {
			s.dispatchNotifications(p, tc.traceID)
		}

		s.writeJsonResponse(w, redirectResponse{Success: true, Redirect: "/manage"}, http.StatusOK)
	}
}

func (s *Server) propertyDeleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tc := getTraceContext(r.Context())
		sess, err := session.FromContext(r.Context())
		if err != nil {
			s.Logger.Errorf("propertyDeleteHandler: No session available, err: %v, TraceID: %s", err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		id := mux.Vars(r)["propertyID"]
		p, err := s.DB.PropertyFindByID(r.Context(), id)
		if err != nil {
			s.Logger.Debugf("propertyDeleteHandler: Property not found: %s, err: %v, TraceID: %s", id, err, tc.traceID)
			s.writeJsonError(w, "Property not found.", http.StatusNotFound)
			return
		}
		if !sess.IsAdmin() && !p.OwnedBy(sess.UserID) {
			s.Logger.Debugf("propertyDeleteHandler: User %s denied delete of property %s, TraceID: %s",
				sess.UserID, id, tc.traceID)
			s.writeJsonError(w, "You do not have permission to delete this property.", http.StatusForbidden)
			return
		}

		if err := s.DB.PropertyDelete(r.Context(), id); err != nil {
			s.Logger.Errorf("propertyDeleteHandler: Error deleting property: %s, err: %v, TraceID: %s",
				id, err, tc.traceID)
			s.writeJsonError(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		s.Logger.Infof("propertyDeleteHandler: Property deleted: %s by user: %s, TraceID: %s", id, sess.UserID, tc.traceID)

		s.Featured.Invalidate()
		s.removeUploads(append([]string{p.MainImage}, p.Images...), tc.traceID)
		s.removeUploads(videoPaths(p.Videos), tc.traceID)

		s.writeJsonResponse(w, redirectResponse{Success: true, Redirect: "/manage"}, http.StatusOK)
	}
}

func parsePropertyForm(r *http.Request) (propertyForm, error) {
	price, err := formInt(r, "price")
	if err != nil {
		return propertyForm{}, err
	}
	beds, err := formInt(r, "beds")
	if err != nil {
		return propertyForm{}, err
	}
	baths, err := formFloat(r, "baths")
	if err != nil {
		return propertyForm{}, err
	}
	sqft, err := formInt(r, "sqft")
	if err != nil {
		return propertyForm{}, err
	}

	form := propertyForm{
		Title:         strings.TrimSpace(r.PostFormValue("title")),
		Description:   strings.TrimSpace(r.PostFormValue("description")),
		Location:      strings.TrimSpace(r.PostFormValue("location")),
		Price:         price,
		PriceInterval: r.PostFormValue("priceInterval"),
		Status:        r.PostFormValue("status"),
		ListingType:   r.PostFormValue("listingType"),
		Beds:          beds,
		Baths:         baths,
		Sqft:          sqft,
	}
	if err := checkStruct(form); err != nil {
		return propertyForm{}, err
	}
	return form, nil
}

// formInt rejects a non-numeric value instead of flattening it to zero, so a
// garbled field fails the request rather than saving wrong data. An absent
// field is zero; the validation rules decide whether zero is acceptable.
func formInt(r *http.Request, name string) (int, error) {
	v := strings.TrimSpace(r.PostFormValue(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, errors.Errorf("invalid field %#v, expected a whole number", name)
	}
	return n, nil
}

func formFloat(r *http.Request, name string) (float64, error) {
	v := strings.TrimSpace(r.PostFormValue(name))
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, errors.Errorf("invalid field %#v, expected a number", name)
	}
	return f, nil
}

func parseFeatures(raw string) []string {
	var out []string
	for _, f := range strings.Split(raw, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseIndexList decodes a JSON array of indices submitted as a hidden form
// field. Anything unparseable is treated as no changes.
func parseIndexList(raw string) []int {
	if raw == "" {
		return nil
	}
	var out []int
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil
	}
	return out
}

func pickByIndex[T any](list []T, indices []int) []T {
	var out []T
	for _, i := range indices {
		if i >= 0 && i < len(list) {
			out = append(out, list[i])
		}
	}
	return out
}

func videoPaths(vs []model.VideoRef) []string {
	paths := make([]string, 0, len(vs))
	for _, v := range vs {
		paths = append(paths, v.URL)
	}
	return paths
}

func (s *Server) saveImageUploads(headers []*multipart.FileHeader) ([]string, error) {
	var out []string
	for _, fh := range headers {
		p, err := media.SaveUpload(s.Config.UploadDir, media.ImageDir, "images", fh)
		if err != nil {
			return nil, errors.Wrapf(err, "error saving image upload: %s", fh.Filename)
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *Server) saveVideoUploads(headers []*multipart.FileHeader) ([]model.VideoRef, error) {
	var out []model.VideoRef
	for _, fh := range headers {
		p, err := media.SaveUpload(s.Config.UploadDir, media.VideoDir, "videos", fh)
		if err != nil {
			return nil, errors.Wrapf(err, "error saving video upload: %s", fh.Filename)
		}
		out = append(out, model.VideoRef{URL: p, Title: fh.Filename})
	}
	return out, nil
}

func (s *Server) removeUploads(paths []string, traceID string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := media.RemoveUpload(s.Config.UploadDir, p); err != nil {
			s.Logger.Warnf("removeUploads: Error removing file: %s, err: %v, TraceID: %s", p, err, traceID)
		}
	}
}
