package apihandlers

import (
	"sync"
	"time"
)

// Map backed record stores for the department endpoints. Volatile by
// design, like the rest of the default deployment.

type TaxFiling struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userID"`
	TaxYear     int       `json:"taxYear"`
	Income      float64   `json:"income"`
	Deductions  float64   `json:"deductions"`
	Status      string    `json:"status"`
	SubmittedAt time.Time `json:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type taxFilingStore struct {
	mu      sync.RWMutex
	filings map[string]TaxFiling
}

func newTaxFilingStore() *taxFilingStore {
	return &taxFilingStore{filings: map[string]TaxFiling{}}
}

func (s *taxFilingStore) save(filing TaxFiling) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filings[filing.ID] = filing
}

func (s *taxFilingStore) get(id string) (TaxFiling, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filing, ok := s.filings[id]
	return filing, ok
}

func (s *taxFilingStore) listForUser(userID string) []TaxFiling {
	s.mu.RLock()
	defer s.mu.RUnlock()
	filings := []TaxFiling{}
	for _, filing := range s.filings {
		if filing.UserID == userID {
			filings = append(filings, filing)
		}
	}
	return filings
}

type CourtCase struct {
	ID          string     `json:"id"`
	CaseNumber  string     `json:"caseNumber"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Parties     []string   `json:"parties,omitempty"`
	FiledAt     time.Time  `json:"filedAt"`
	NextHearing *time.Time `json:"nextHearing,omitempty"`
}

type courtCaseStore struct {
	mu    sync.RWMutex
	cases map[string]CourtCase
}

func newCourtCaseStore() *courtCaseStore {
	return &courtCaseStore{cases: map[string]CourtCase{}}
}

func (s *courtCaseStore) save(courtCase CourtCase) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cases[courtCase.CaseNumber] = courtCase
}

func (s *courtCaseStore) getByNumber(caseNumber string) (CourtCase, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	courtCase, ok := s.cases[caseNumber]
	return courtCase, ok
}

type Licence struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userID"`
	Type      string    `json:"type"`
	Status    string    `json:"status"`
	AppliedAt time.Time `json:"appliedAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type licenceStore struct {
	mu       sync.RWMutex
	licences map[string]Licence
}

func newLicenceStore() *licenceStore {
	return &licenceStore{licences: map[string]Licence{}}
}

func (s *licenceStore) save(licence Licence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.licences[licence.ID] = licence
}

func (s *licenceStore) get(id string) (Licence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	licence, ok := s.licences[id]
	return licence, ok
}

func (s *licenceStore) listForUser(userID string) []Licence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	licences := []Licence{}
	for _, licence := range s.licences {
		if licence.UserID == userID {
			licences = append(licences, licence)
		}
	}
	return licences
}

type LandRecord struct {
	ParcelID     string    `json:"parcelID"`
	Owner        string    `json:"owner"`
	AreaSqm      float64   `json:"areaSqm"`
	Municipality string    `json:"municipality"`
	RegisteredAt time.Time `json:"registeredAt"`
}

type landRecordStore struct {
	mu      sync.RWMutex
	records map[string]LandRecord
}

func newLandRecordStore() *landRecordStore {
	return &landRecordStore{records: map[string]LandRecord{}}
}

func (s *landRecordStore) save(record LandRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[record.ParcelID] = record
}

func (s *landRecordStore) get(parcelID string) (LandRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[parcelID]
	return record, ok
}
