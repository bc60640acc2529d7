package grid

import "imsystem/pkg/models"

// TotalPages is ceil(count/size) but never less than 1, so an empty view
// reads as page 1 of 1.
func TotalPages(count, size int) int {
	if size < 1 {
		size = PageSize
	}
	return max((count+size-1)/size, 1)
}

// ClampPage bounds index into [1, totalPages].
func ClampPage(index, totalPages int) int {
	return min(max(index, 1), max(totalPages, 1))
}

// Paginate returns the window [(index-1)*size, index*size) of records,
// truncated to the available length. An index outside the data yields an
// empty slice. The result shares the backing array of records.
func Paginate(records []models.Record, index, size int) []models.Record {
	if size < 1 {
		size = PageSize
	}
	if index < 1 {
		return []models.Record{}
	}
	start := (index - 1) * size
	if start >= len(records) {
		return []models.Record{}
	}
	end := min(start+size, len(records))
	return records[start:end:end]
}
