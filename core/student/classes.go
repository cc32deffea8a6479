package student

import "fmt"

// ClassList is the vocational class vocabulary:
// ปวช.1-3 and ปวส.1-2, rooms 1-4 each.
var ClassList = generateClassList()

func generateClassList() []string {
	classes := make([]string, 0, 20)
	for grade := 1; grade <= 3; grade++ {
		for room := 1; room <= 4; room++ {
			classes = append(classes, fmt.Sprintf("ปวช.%d/%d", grade, room))
		}
	}
	for grade := 1; grade <= 2; grade++ {
		for room := 1; room <= 4; room++ {
			classes = append(classes, fmt.Sprintf("ปวส.%d/%d", grade, room))
		}
	}
	return classes
}
