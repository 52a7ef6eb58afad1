package quran

// Entry is the canonical starting position of one juz in the madani mushaf.
type Entry struct {
	Juz     int
	Chapter int
	Verse   int
	Page    int
	Content string // opening words of the juz
}

// index holds the 30 juz of the Quran in reading order.
var index = []Entry{
	{1, 1, 1, 1, "الم"},
	{2, 2, 142, 22, "سيقول السفهاء"},
	{3, 2, 253, 42, "تلك الرسل"},
	{4, 3, 93, 62, "لن تنالوا"},
	{5, 4, 24, 82, "والمحصنات"},
	{6, 4, 148, 102, "لا يحب الله"},
	{7, 5, 82, 121, "وإذا سمعوا"},
	{8, 6, 111, 142, "ولو أننا"},
	{9, 7, 88, 162, "قال الملأ"},
	{10, 8, 41, 182, "واعلموا"},
	{11, 9, 93, 201, "يعتذرون"},
	{12, 11, 6, 222, "وما من دابة"},
	{13, 12, 53, 242, "وما أبرئ"},
	{14, 15, 1, 262, "ربما"},
	{15, 17, 1, 282, "سبحان الذي"},
	{16, 18, 75, 302, "قال ألم"},
	{17, 21, 1, 322, "اقترب للناس"},
	{18, 23, 1, 342, "قد أفلح"},
	{19, 25, 21, 362, "وقال الذين"},
	{20, 27, 56, 382, "أمن خلق"},
	{21, 29, 46, 402, "اتل ما أوحي"},
	{22, 33, 31, 422, "ومن يقنت"},
	{23, 36, 28, 442, "وما لي"},
	{24, 39, 32, 462, "فمن أظلم"},
	{25, 41, 47, 482, "إليه يرد"},
	{26, 46, 1, 502, "حم"},
	{27, 51, 31, 522, "قال فما خطبكم"},
	{28, 58, 1, 542, "قد سمع الله"},
	{29, 67, 1, 562, "تبارك الذي"},
	{30, 78, 1, 582, "عم يتساءلون"},
}

// Count is the number of juz in the Quran.
const Count = 30

// First returns the start-of-Quran reference position (juz 1).
func First() Entry {
	return index[0]
}

// ByNumber returns the entry for juz n (1..30). Out-of-range values wrap,
// so ByNumber(31) is juz 1 again.
func ByNumber(n int) Entry {
	n = ((n-1)%Count + Count) % Count
	return index[n]
}
