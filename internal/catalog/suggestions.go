package catalog

// Suggestion is a canned rewrite instruction shown next to the
// instruction box. Any instruction is accepted; these are hints only.
type Suggestion struct {
	Text        string `json:"text"`
	Icon        string `json:"icon"`
	Description string `json:"description"`
}

var suggestions = []Suggestion{
	{Text: "Change background color to light gray", Icon: "🎨", Description: "Modify the background color of the page or section"},
	{Text: "Change text color to black", Icon: "🖌️", Description: "Update the text color of the content"},
	{Text: "Increase font size of headings", Icon: "🔠", Description: "Make the headings more prominent"},
	{Text: "Change button color to blue", Icon: "🔵", Description: "Update button styles with a new color"},
	{Text: "Center align all text", Icon: "📐", Description: "Align text content to center"},
	{Text: "Change font family to Roboto", Icon: "🆎", Description: "Apply Roboto font to all text"},
	{Text: "Increase padding inside containers", Icon: "📦", Description: "Add more spacing inside elements"},
	{Text: "Add hover effect on links", Icon: "🖱️", Description: "Style links to react on hover"},
	{Text: "Round the corners of cards", Icon: "🟪", Description: "Apply border-radius to card components"},
	{Text: "Change navbar background to white", Icon: "⬜", Description: "Customize the navbar section"},
}

// Suggestions returns a copy of the suggestion list.
func Suggestions() []Suggestion {
	return append([]Suggestion(nil), suggestions...)
}
