package repositories

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"natours/internal/domain"
	"natours/internal/domain/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkb"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return sqlx.NewDb(db, "mysql"), mock
}

func sampleWrite() TourWrite {
	return TourWrite{
		Input: models.TourInput{
			Name:         "The Forest Hiker",
			Duration:     5,
			MaxGroupSize: 25,
			Difficulty:   "easy",
			Price:        397,
			Description:  "Breathtaking hike through the Canadian Banff National Park",
			ImageCover:   "tour-1-cover.jpg",
			StartLocation: models.GeoPoint{
				Type:        "Point",
				Coordinates: orb.Point{-115.570154, 51.178456},
				Address:     "224 Banff Ave, Banff, AB, Canada",
			},
			Guides: []int64{2, 3},
		},
		Slug:       "the-forest-hiker",
		StartDates: []time.Time{time.Date(2021, 4, 25, 9, 0, 0, 0, time.UTC)},
	}
}

func TestTourFindDecodesGeometryAndJSONColumns(t *testing.T) {
	db, mock := newMock(t)
	point, err := wkb.Marshal(orb.Point{-115.570154, 51.178456})
	if err != nil {
		t.Fatalf("wkb marshal: %v", err)
	}

	mock.ExpectQuery("SELECT .* FROM `tours` WHERE .*`secret_tour` IS FALSE").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "images", "start_location", "start_address", "locations"}).
			AddRow(1, "The Forest Hiker", `["tour-1-1.jpg","tour-1-2.jpg"]`, point, "Banff",
				`[{"type":"Point","coordinates":[-116.214531,51.417611],"description":"Banff National Park","day":1}]`))

	repo := TourRepository{DB: db}
	f := repo.Query(url.Values{"fields": {"name,images,startLocation,locations"}}).Filter().Sort().LimitFields().Paginate()
	tours, err := repo.Find(context.Background(), f)
	if err != nil {
		t.Fatalf("Find returned error: %v", err)
	}
	if len(tours) != 1 {
		t.Fatalf("expected 1 tour, got %d", len(tours))
	}
	got := tours[0]
	if len(got.Images) != 2 || got.Images[1] != "tour-1-2.jpg" {
		t.Fatalf("images decoded incorrectly: %v", got.Images)
	}
	if got.StartLocation.Coordinates.Lon() != -115.570154 || got.StartLocation.Coordinates.Lat() != 51.178456 {
		t.Fatalf("start location decoded incorrectly: %v", got.StartLocation.Coordinates)
	}
	if got.StartLocation.Address != "Banff" || got.StartLocation.Type != "Point" {
		t.Fatalf("start location metadata lost: %+v", got.StartLocation)
	}
	if len(got.Locations) != 1 || got.Locations[0].Day != 1 {
		t.Fatalf("locations decoded incorrectly: %+v", got.Locations)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTourFindByIDMissingIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("SELECT .* FROM `tours` WHERE .*`id` = \\?").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := TourRepository{DB: db}.FindByID(context.Background(), 99)
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err.Error() != "No tour found with that ID" {
		t.Fatalf("unexpected message: %q", err.Error())
	}
}

func TestTourCreateWritesChildTablesInTransaction(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tours`").WillReturnResult(sqlmock.NewResult(5, 1))
	mock.ExpectExec("INSERT INTO `tour_start_dates`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO `tour_guides`").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	id, err := TourRepository{DB: db}.Create(context.Background(), sampleWrite())
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}
	if id != 5 {
		t.Fatalf("expected id 5, got %d", id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTourCreateDuplicateNameIsConflict(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `tours`").WillReturnError(&mysql.MySQLError{
		Number:  1062,
		Message: "Duplicate entry 'The Forest Hiker' for key 'tours.uniq_tours_name'",
	})
	mock.ExpectRollback()

	_, err := TourRepository{DB: db}.Create(context.Background(), sampleWrite())
	var conflict domain.ConflictError
	if !errors.As(err, &conflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if conflict.Error() != "Duplicate field value: The Forest Hiker. Please use another value!" {
		t.Fatalf("unexpected message: %q", conflict.Error())
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTourUpdateLeavesChildTablesAloneWhenNotPatched(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `tours` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := (TourRepository{DB: db}).Update(context.Background(), 5, sampleWrite(), false, false); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTourUpdateReplacesStartDates(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `tours` SET").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE `tour_start_dates` FROM `tour_start_dates`").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("INSERT INTO `tour_start_dates`").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	if err := (TourRepository{DB: db}).Update(context.Background(), 5, sampleWrite(), true, false); err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestTourDeleteMissingIsNotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec("DELETE `tours` FROM `tours`").WillReturnResult(sqlmock.NewResult(0, 0))

	if err := (TourRepository{DB: db}).Delete(context.Background(), 42); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestTourDistancesScalesAndOrders(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("ST_Distance_Sphere\\(`start_location`, POINT\\(\\?, \\?\\), \\?\\) \\* \\?.*ORDER BY `distance` ASC").
		WithArgs(-118.113491, 34.111745, sphereRadius, 0.001).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "distance"}).
			AddRow(1, "The Sea Explorer", 12.5).
			AddRow(2, "The Forest Hiker", 1600.2))

	out, err := TourRepository{DB: db}.Distances(context.Background(), orb.Point{-118.113491, 34.111745}, domain.UnitKilometers.FromMeters())
	if err != nil {
		t.Fatalf("Distances returned error: %v", err)
	}
	if len(out) != 2 || out[0].Name != "The Sea Explorer" {
		t.Fatalf("unexpected distances: %+v", out)
	}
}

func TestTourGuidesGroupsByTour(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectQuery("FROM `tour_guides` AS `tg` INNER JOIN `users` AS `u`").
		WillReturnRows(sqlmock.NewRows([]string{"tour_id", "id", "name", "email", "photo", "role"}).
			AddRow(1, 2, "Lourdes Browning", "lourdes@example.io", "user-2.jpg", "lead-guide").
			AddRow(1, 3, "Leo Gillespie", "leo@example.io", "user-3.jpg", "guide").
			AddRow(4, 3, "Leo Gillespie", "leo@example.io", "user-3.jpg", "guide"))

	out, err := TourRepository{DB: db}.Guides(context.Background(), []int64{1, 4, 9})
	if err != nil {
		t.Fatalf("Guides returned error: %v", err)
	}
	if len(out[1]) != 2 || out[1][0].Role != domain.RoleLeadGuide {
		t.Fatalf("tour 1 guides wrong: %+v", out[1])
	}
	if len(out[4]) != 1 || len(out[9]) != 0 {
		t.Fatalf("unexpected grouping: %+v", out)
	}
}
