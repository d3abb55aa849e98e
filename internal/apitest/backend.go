// Package apitest provides an in-memory rental backend for tests, in the
// spirit of net/http/httptest. It speaks the same REST surface as the real
// server under /api and keeps everything in memory.
package apitest

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"car-rental/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// TokenTTL is the lifetime of issued tokens.
const TokenTTL = 24 * time.Hour

// Request is a recorded incoming request.
type Request struct {
	Method        string
	Path          string
	Authorization string
	ContentType   string
	RequestID     string
}

var errEmailTaken = errors.New("email already registered")

type account struct {
	user         models.User
	passwordHash []byte
}

// Backend is the fake server state.
type Backend struct {
	mu        sync.Mutex
	secret    []byte
	accounts  map[string]*account // by email
	cars      map[int64]models.Car
	bookings  map[int64]*ownedBooking
	favorites map[int64]map[int64]bool // user -> car ids
	profiles  map[int64]*models.Profile
	requests  []Request
	nextUser  int64
	nextCar   int64
	nextBook  int64
}

type ownedBooking struct {
	userID  int64
	booking models.Booking
}

// New returns an empty backend.
func New() *Backend {
	return &Backend{
		secret:    []byte("apitest-signing-key"),
		accounts:  make(map[string]*account),
		cars:      make(map[int64]models.Car),
		bookings:  make(map[int64]*ownedBooking),
		favorites: make(map[int64]map[int64]bool),
		profiles:  make(map[int64]*models.Profile),
	}
}

// NewSeeded returns a backend with a small fleet of cars.
func NewSeeded() *Backend {
	b := New()
	b.AddCar(models.Car{Make: "Toyota", Model: "Corolla", Year: 2022, Price: 50, Description: "Reliable compact sedan"})
	b.AddCar(models.Car{Make: "Tesla", Model: "Model 3", Year: 2023, Price: 120, ImageURL: "https://example.com/model3.jpg"})
	b.AddCar(models.Car{Make: "Ford", Model: "Mustang", Year: 2021, Price: 95})
	return b
}

// Start serves the backend on a local httptest server. The API lives at
// srv.URL + "/api".
func (b *Backend) Start() *httptest.Server {
	return httptest.NewServer(b.Handler())
}

// AddCar stores a car, assigning an id when it has none.
func (b *Backend) AddCar(c models.Car) models.Car {
	b.mu.Lock()
	defer b.mu.Unlock()

	if c.ID == 0 {
		b.nextCar++
		c.ID = b.nextCar
	} else if c.ID > b.nextCar {
		b.nextCar = c.ID
	}
	b.cars[c.ID] = c
	return c
}

// AddUser registers an account directly.
func (b *Backend) AddUser(name, email, password, phone string) (models.User, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(name, email, password, phone)
}

func (b *Backend) addUserLocked(name, email, password, phone string) (models.User, error) {
	key := strings.ToLower(email)
	if _, ok := b.accounts[key]; ok {
		return models.User{}, errEmailTaken
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return models.User{}, err
	}
	b.nextUser++
	u := models.User{ID: b.nextUser, Name: name, Email: email, Phone: phone}
	b.accounts[key] = &account{user: u, passwordHash: hash}
	b.profiles[u.ID] = &models.Profile{Name: name, Email: email, Phone: phone}
	return u, nil
}

// TokenFor issues a valid token for a user id.
func (b *Backend) TokenFor(userID int64) string {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"id":  userID,
		"exp": time.Now().Add(TokenTTL).Unix(),
	}).SignedString(b.secret)
	if err != nil {
		panic(fmt.Sprintf("apitest: sign token: %v", err))
	}
	return signed
}

// Requests returns a copy of every request received so far.
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// Handler returns the HTTP handler serving /api.
func (b *Backend) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", b.login)
	mux.HandleFunc("POST /api/auth/register", b.register)
	mux.Handle("GET /api/cars", b.auth(b.listCars))
	mux.Handle("GET /api/bookings", b.auth(b.listBookings))
	mux.Handle("POST /api/bookings", b.auth(b.createBooking))
	mux.Handle("DELETE /api/bookings/{id}", b.auth(b.cancelBooking))
	mux.Handle("GET /api/users/profile", b.auth(b.getProfile))
	mux.Handle("PUT /api/users/profile", b.auth(b.updateProfile))
	mux.Handle("GET /api/users/favorites", b.auth(b.listFavorites))
	mux.Handle("POST /api/users/favorites/{carId}", b.auth(b.addFavorite))
	mux.Handle("DELETE /api/users/favorites/{carId}", b.auth(b.removeFavorite))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
			RequestID:     r.Header.Get("X-Request-ID"),
		})
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	})
}

type userHandler func(w http.ResponseWriter, r *http.Request, userID int64)

func (b *Backend) auth(next userHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenString == "" {
			respondMessage(w, http.StatusUnauthorized, "Authorization header required")
			return
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
			return b.secret, nil
		}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		if err != nil || !token.Valid {
			respondMessage(w, http.StatusUnauthorized, "Invalid token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			respondMessage(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		id, ok := claims["id"].(float64)
		if !ok {
			respondMessage(w, http.StatusUnauthorized, "Invalid token claims")
			return
		}
		next(w, r, int64(id))
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	b.mu.Lock()
	acc, ok := b.accounts[strings.ToLower(req.Email)]
	b.mu.Unlock()
	if !ok || bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(req.Password)) != nil {
		respondMessage(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}
	respondJSON(w, http.StatusOK, models.AuthResponse{Token: b.TokenFor(acc.user.ID), User: &acc.user})
}

func (b *Backend) register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		respondMessage(w, http.StatusBadRequest, "Name, email and password are required")
		return
	}

	b.mu.Lock()
	u, err := b.addUserLocked(req.Name, req.Email, req.Password, req.Phone)
	b.mu.Unlock()
	if errors.Is(err, errEmailTaken) {
		respondMessage(w, http.StatusConflict, "Email already registered")
		return
	}
	if err != nil {
		respondMessage(w, http.StatusInternalServerError, "Registration failed")
		return
	}
	respondJSON(w, http.StatusCreated, models.AuthResponse{Token: b.TokenFor(u.ID), User: &u})
}

func (b *Backend) listCars(w http.ResponseWriter, _ *http.Request, _ int64) {
	b.mu.Lock()
	cars := make([]models.Car, 0, len(b.cars))
	for _, c := range b.cars {
		cars = append(cars, c)
	}
	b.mu.Unlock()

	sort.Slice(cars, func(i, j int) bool { return cars[i].ID < cars[j].ID })
	respondJSON(w, http.StatusOK, cars)
}

func (b *Backend) listBookings(w http.ResponseWriter, _ *http.Request, userID int64) {
	b.mu.Lock()
	out := make([]models.Booking, 0)
	for _, ob := range b.bookings {
		if ob.userID == userID {
			out = append(out, ob.booking)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) createBooking(w http.ResponseWriter, r *http.Request, userID int64) {
	var req models.BookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.StartDate.IsZero() || req.EndDate.IsZero() {
		respondMessage(w, http.StatusBadRequest, "Start and end dates are required")
		return
	}
	if !req.EndDate.After(req.StartDate.Time) {
		respondMessage(w, http.StatusBadRequest, "End date must be after start date")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	car, ok := b.cars[req.CarID]
	if !ok {
		respondMessage(w, http.StatusNotFound, "Car not found")
		return
	}
	for _, ob := range b.bookings {
		bk := ob.booking
		if bk.Car == nil || bk.Car.ID != car.ID || bk.Status != models.BookingStatusActive {
			continue
		}
		if req.StartDate.Before(bk.EndDate.Time) && bk.StartDate.Before(req.EndDate.Time) {
			respondMessage(w, http.StatusConflict, "Car is not available for the selected dates")
			return
		}
	}

	days := math.Ceil(req.EndDate.Sub(req.StartDate.Time).Hours() / 24)
	b.nextBook++
	bk := models.Booking{
		ID:         b.nextBook,
		Car:        &car,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		TotalPrice: days * car.Price,
		Status:     models.BookingStatusActive,
	}
	b.bookings[bk.ID] = &ownedBooking{userID: userID, booking: bk}
	respondJSON(w, http.StatusCreated, bk)
}

func (b *Backend) cancelBooking(w http.ResponseWriter, r *http.Request, userID int64) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid booking id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	ob, ok := b.bookings[id]
	if !ok || ob.userID != userID {
		respondMessage(w, http.StatusNotFound, "Booking not found")
		return
	}
	if ob.booking.Status != models.BookingStatusActive {
		respondMessage(w, http.StatusBadRequest, "Only active bookings can be cancelled")
		return
	}
	ob.booking.Status = models.BookingStatusCancelled
	w.WriteHeader(http.StatusNoContent)
}

func (b *Backend) getProfile(w http.ResponseWriter, _ *http.Request, userID int64) {
	b.mu.Lock()
	p, ok := b.profiles[userID]
	var out models.Profile
	if ok {
		out = *p
	}
	b.mu.Unlock()

	if !ok {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) updateProfile(w http.ResponseWriter, r *http.Request, userID int64) {
	var req models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respondMessage(w, http.StatusBadRequest, "Name is required")
		return
	}

	b.mu.Lock()
	p, ok := b.profiles[userID]
	var out models.Profile
	if ok {
		p.Name = req.Name
		p.Phone = req.Phone
		out = *p
	}
	b.mu.Unlock()

	if !ok {
		respondMessage(w, http.StatusNotFound, "User not found")
		return
	}
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) listFavorites(w http.ResponseWriter, _ *http.Request, userID int64) {
	b.mu.Lock()
	out := make([]models.Car, 0)
	for carID := range b.favorites[userID] {
		if c, ok := b.cars[carID]; ok {
			out = append(out, c)
		}
	}
	b.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	respondJSON(w, http.StatusOK, out)
}

func (b *Backend) addFavorite(w http.ResponseWriter, r *http.Request, userID int64) {
	carID, err := strconv.ParseInt(r.PathValue("carId"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid car id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.cars[carID]; !ok {
		respondMessage(w, http.StatusNotFound, "Car not found")
		return
	}
	if b.favorites[userID] == nil {
		b.favorites[userID] = make(map[int64]bool)
	}
	b.favorites[userID][carID] = true
	respondMessage(w, http.StatusCreated, "Added to favorites")
}

func (b *Backend) removeFavorite(w http.ResponseWriter, r *http.Request, userID int64) {
	carID, err := strconv.ParseInt(r.PathValue("carId"), 10, 64)
	if err != nil {
		respondMessage(w, http.StatusBadRequest, "Invalid car id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.favorites[userID][carID] {
		respondMessage(w, http.StatusNotFound, "Favorite not found")
		return
	}
	delete(b.favorites[userID], carID)
	respondMessage(w, http.StatusOK, "Removed from favorites")
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func respondMessage(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"message": msg})
}
