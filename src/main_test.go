package main

import (
	"apms/src/db"
	"apms/src/types"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type TestSuite struct {
	suite.Suite
	DB   *gorm.DB
	Mock sqlmock.Sqlmock
}

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	conn, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		panic(err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: conn,
	}), &gorm.Config{})
	if err != nil {
		panic(err)
	}
	return gormDB, mock
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("bookabledate", bookableDateValidatorFunc)
		v.RegisterValidation("gtdate", gtfield)
	}

	d, mock := NewMockDB()
	db.NewDB(d)
	s.DB = d
	s.Mock = mock
}

// newRouter mounts the reservation routes without the auth middleware so
// requests exercise binding and the service layer directly.
func (s *TestSuite) newRouter() *gin.Engine {
	router := setupRouter()
	apiv1 := apiv1Group(router)
	apiv1.Use(func(ctx *gin.Context) {
		ctx.Set("role", string(types.ROLE_ADMIN))
		ctx.Set("apartment_no", "A-1")
	})
	reservationHandlers(apiv1)
	return router
}

func (s *TestSuite) TestPingRoute() {
	router := setupRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/", nil)
	router.ServeHTTP(w, req)

	assert.Equal(s.T(), 200, w.Code)
}

func (s *TestSuite) TestReservationValidation() {
	router := s.newRouter()

	s.Run("Should reject end_time before start_time without touching the DB", func() {
		body := types.CreateReservationRequestBody{
			ApartmentNo: "A-1",
			Facility:    types.FACILITY_POOL,
			StartTime:   "2027-09-01T11:00:00Z",
			EndTime:     "2027-09-01T10:00:00Z",
		}
		rbytes, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject equal start and end times", func() {
		body := types.CreateReservationRequestBody{
			ApartmentNo: "A-1",
			Facility:    types.FACILITY_POOL,
			StartTime:   "2027-09-01T10:00:00Z",
			EndTime:     "2027-09-01T10:00:00Z",
		}
		rbytes, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject bookings in the past", func() {
		body := types.CreateReservationRequestBody{
			ApartmentNo: "A-1",
			Facility:    types.FACILITY_GYM,
			StartTime:   "2020-01-01T10:00:00Z",
			EndTime:     "2020-01-01T11:00:00Z",
		}
		rbytes, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})

	s.Run("Should reject unknown facility", func() {
		rbytes := []byte(`{"apartment_no":"A-1","facility":"SAUNA","start_time":"2027-09-01T10:00:00Z","end_time":"2027-09-01T11:00:00Z"}`)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
	})
}

func (s *TestSuite) TestCreateReservation() {
	router := s.newRouter()

	s.Run("Should create a reservation when the slot is free", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectExec("pg_advisory_xact_lock").
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "apartment_no", "facility", "start_time", "end_time", "status"}))
		s.Mock.ExpectQuery(`INSERT INTO "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		s.Mock.ExpectCommit()

		body := types.CreateReservationRequestBody{
			ApartmentNo: "A-1",
			Facility:    types.FACILITY_POOL,
			StartTime:   "2027-09-01T10:00:00Z",
			EndTime:     "2027-09-01T11:00:00Z",
		}
		rbytes, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 201, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		assert.Equal(s.T(), int64(1), gjson.GetBytes(resbytes, "data.id").Int())
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should reject an overlapping reservation with the conflict message", func() {
		start, _ := time.Parse(time.RFC3339, "2027-09-01T10:00:00Z")
		end, _ := time.Parse(time.RFC3339, "2027-09-01T11:00:00Z")

		s.Mock.ExpectBegin()
		s.Mock.ExpectExec("pg_advisory_xact_lock").
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "apartment_no", "facility", "start_time", "end_time", "status"}).
				AddRow(1, "B-2", "POOL", start, end, "APPROVED"))
		s.Mock.ExpectRollback()

		body := types.CreateReservationRequestBody{
			ApartmentNo: "A-1",
			Facility:    types.FACILITY_POOL,
			StartTime:   "2027-09-01T10:30:00Z",
			EndTime:     "2027-09-01T11:30:00Z",
		}
		rbytes, _ := json.Marshal(&body)
		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/reservations", strings.NewReader(string(rbytes)))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		resbytes, err := io.ReadAll(w.Body)
		assert.Nil(s.T(), err)
		errMsg := gjson.GetBytes(resbytes, "error").String()
		assert.Equal(s.T(), "Bu zaman diliminde başka bir rezervasyon bulunmaktadır", errMsg)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestGetReservation() {
	router := s.newRouter()

	s.Run("Should return 404 for a missing reservation", func() {
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnError(gorm.ErrRecordNotFound)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/reservations/99", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestUpdateReservation() {
	router := s.newRouter()

	s.Run("Should reject reviving a cancelled reservation", func() {
		start, _ := time.Parse(time.RFC3339, "2027-09-01T10:00:00Z")
		end, _ := time.Parse(time.RFC3339, "2027-09-01T11:00:00Z")

		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "apartment_no", "facility", "start_time", "end_time", "status"}).
				AddRow(5, "A-1", "GYM", start, end, "CANCELLED"))
		s.Mock.ExpectRollback()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/reservations/5", strings.NewReader(`{"status":"APPROVED"}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should reject rescheduling a cancelled reservation", func() {
		start, _ := time.Parse(time.RFC3339, "2027-09-01T10:00:00Z")
		end, _ := time.Parse(time.RFC3339, "2027-09-01T11:00:00Z")

		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "apartment_no", "facility", "start_time", "end_time", "status"}).
				AddRow(5, "A-1", "GYM", start, end, "CANCELLED"))
		s.Mock.ExpectRollback()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/reservations/5", strings.NewReader(`{"start_time":"2027-09-02T10:00:00Z","end_time":"2027-09-02T11:00:00Z"}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should reject editing a rejected reservation's description", func() {
		start, _ := time.Parse(time.RFC3339, "2027-09-01T10:00:00Z")
		end, _ := time.Parse(time.RFC3339, "2027-09-01T11:00:00Z")

		s.Mock.ExpectBegin()
		s.Mock.ExpectQuery(`SELECT (.+) FROM "reservations"`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "apartment_no", "facility", "start_time", "end_time", "status"}).
				AddRow(6, "A-1", "POOL", start, end, "REJECTED"))
		s.Mock.ExpectRollback()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/reservations/6", strings.NewReader(`{"description":"changed"}`))
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 400, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func (s *TestSuite) TestDeleteReservation() {
	router := s.newRouter()

	s.Run("Should return 204 after removing a reservation", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectExec(`DELETE FROM "reservations"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/reservations/5", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 204, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})

	s.Run("Should return 404 when nothing was deleted", func() {
		s.Mock.ExpectBegin()
		s.Mock.ExpectExec(`DELETE FROM "reservations"`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		s.Mock.ExpectCommit()

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/reservations/99", nil)
		router.ServeHTTP(w, req)

		assert.Equal(s.T(), 404, w.Code)
		assert.Nil(s.T(), s.Mock.ExpectationsWereMet())
	})
}

func TestRunner(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
