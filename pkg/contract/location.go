package contract

// Location: 文本型过滤器作用的字段指示符。
// 各领域可用值：pairs: instruction|input|output；pretrain: content；
// classification: text；翻译记录按语言 ID 选择，不走 Location。
const (
	LocationAny         = "any"
	LocationInstruction = "instruction"
	LocationInput       = "input"
	LocationOutput      = "output"
	LocationContent     = "content"
	LocationText        = "text"
)

// Locations: --location 的合法取值（含 any）。
var Locations = []string{
	LocationAny,
	LocationInstruction,
	LocationInput,
	LocationOutput,
	LocationContent,
	LocationText,
}

// ValidLocation 校验取值；空串归一为 any。
func ValidLocation(loc string) (string, bool) {
	if loc == "" {
		return LocationAny, true
	}
	for _, l := range Locations {
		if loc == l {
			return loc, true
		}
	}
	return "", false
}

func locMatch(loc, want string) bool { return loc == LocationAny || loc == want }

// Texts 按 Location（与翻译语言限制）提取记录的文本字段。
// languages 仅对翻译记录生效；为空表示全部语言。
func Texts(r Record, loc string, languages []string) []string {
	switch d := r.(type) {
	case *PairData:
		var out []string
		if locMatch(loc, LocationInstruction) {
			out = append(out, d.Instruction)
		}
		if locMatch(loc, LocationInput) {
			out = append(out, d.Input)
		}
		if locMatch(loc, LocationOutput) {
			out = append(out, d.Output)
		}
		return out
	case *PretrainData:
		if locMatch(loc, LocationContent) {
			return []string{d.Content}
		}
	case *ClassificationData:
		if locMatch(loc, LocationText) {
			return []string{d.Text}
		}
	case *TranslationData:
		if len(languages) == 0 {
			out := make([]string, 0, len(d.Translations))
			for _, t := range d.Translations {
				out = append(out, t)
			}
			return out
		}
		var out []string
		for _, lang := range languages {
			if t, ok := d.Translations[lang]; ok {
				out = append(out, t)
			}
		}
		return out
	}
	return nil
}

// Apply 按 Location 就地变换记录的文本字段。
func Apply(r Record, loc string, languages []string, f func(string) string) {
	switch d := r.(type) {
	case *PairData:
		if locMatch(loc, LocationInstruction) {
			d.Instruction = f(d.Instruction)
		}
		if locMatch(loc, LocationInput) {
			d.Input = f(d.Input)
		}
		if locMatch(loc, LocationOutput) {
			d.Output = f(d.Output)
		}
	case *PretrainData:
		if locMatch(loc, LocationContent) {
			d.Content = f(d.Content)
		}
	case *ClassificationData:
		if locMatch(loc, LocationText) {
			d.Text = f(d.Text)
		}
	case *TranslationData:
		if len(languages) == 0 {
			for k, t := range d.Translations {
				d.Translations[k] = f(t)
			}
			return
		}
		for _, lang := range languages {
			if t, ok := d.Translations[lang]; ok {
				d.Translations[lang] = f(t)
			}
		}
	}
}
