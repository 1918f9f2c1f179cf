// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	testDefs := []struct {
		query  string
		count  int
		page   int
		offset int
		err    error
	}{
		{query: "", count: DefaultPaginationCount, page: 1, offset: 0},
		{query: "count=25&page=3", count: 25, page: 3, offset: 50},
		{query: "count=999&page=0", count: MaxPaginationCount, page: 1, offset: 0},
		{query: "count=-5", count: 1, page: 1, offset: 0},
		{query: "count=abc", err: ErrInvalidPaginationParameters},
		{query: "page=1.5", err: ErrInvalidPaginationParameters},
	}
	for _, testDef := range testDefs {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/credentials?"+testDef.query, nil)
		params, err := ParsePagination(req)
		if testDef.err != nil {
			require.ErrorIs(t, err, testDef.err, testDef.query)
			continue
		}
		require.NoError(t, err, testDef.query)
		assert.Equal(t, testDef.count, params.Count, testDef.query)
		assert.Equal(t, testDef.page, params.Page, testDef.query)
		assert.Equal(t, testDef.offset, params.Offset(), testDef.query)
	}
}

func TestSetPaginationHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SetPaginationHeaders(rec, 250, PaginationParams{Count: 100, Page: 1})
	assert.Equal(t, "250", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "3", rec.Header().Get("X-Pagination-Page-Total"))

	rec = httptest.NewRecorder()
	SetPaginationHeaders(rec, -1, PaginationParams{Count: 0})
	assert.Equal(t, "0", rec.Header().Get("X-Pagination-Count-Total"))
	assert.Equal(t, "0", rec.Header().Get("X-Pagination-Page-Total"))
}
