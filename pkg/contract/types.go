package contract

// Domain: 记录形态（闭集枚举）。DomainAny 仅用于能力集合声明，
// 不会出现在具体记录上。
type Domain string

const (
	DomainAny            Domain = "any"
	DomainPairs          Domain = "pairs"
	DomainPretrain       Domain = "pretrain"
	DomainTranslation    Domain = "translation"
	DomainClassification Domain = "classification"
)

// DomainSuffix: 插件命名中的领域后缀（from-csv-pr / to-csv-t9n 等）。
func DomainSuffix(d Domain) string {
	switch d {
	case DomainPairs:
		return "pr"
	case DomainPretrain:
		return "pt"
	case DomainTranslation:
		return "t9n"
	case DomainClassification:
		return "cl"
	default:
		return string(d)
	}
}

// Meta: 记录的自由键值元数据。惯用键：id、file、line、split。
// 值类型为 any：JSON 解码出的 string/float64/bool 以及过滤器写入的 int。
type Meta map[string]any

// Clone 返回元数据的浅拷贝；nil 输入返回 nil。
func (m Meta) Clone() Meta {
	if m == nil {
		return nil
	}
	c := make(Meta, len(m))
	for k, v := range m {
		c[k] = v
	}
	return c
}

// Record: 流经流水线的原子数据单元。
// 约束：
// - Domain 在记录生命周期内不变；
// - Meta 可为 nil；过滤器写元数据前需 SetMeta 初始化；
// - Clone 产生可独立变异的副本（tee 分支使用）。
type Record interface {
	Domain() Domain
	GetMeta() Meta
	SetMeta(Meta)
	Clone() Record
}

// PairData: 指令/输入/输出三元组（监督微调数据）。
type PairData struct {
	Instruction string
	Input       string
	Output      string

	meta Meta
}

func (d *PairData) Domain() Domain { return DomainPairs }
func (d *PairData) GetMeta() Meta  { return d.meta }
func (d *PairData) SetMeta(m Meta) { d.meta = m }
func (d *PairData) Clone() Record {
	c := *d
	c.meta = d.meta.Clone()
	return &c
}

// PretrainData: 预训练纯文本。
type PretrainData struct {
	Content string

	meta Meta
}

func (d *PretrainData) Domain() Domain { return DomainPretrain }
func (d *PretrainData) GetMeta() Meta  { return d.meta }
func (d *PretrainData) SetMeta(m Meta) { d.meta = m }
func (d *PretrainData) Clone() Record {
	c := *d
	c.meta = d.meta.Clone()
	return &c
}

// TranslationData: 语言 ID → 文本 的翻译映射。
type TranslationData struct {
	Translations map[string]string

	meta Meta
}

func (d *TranslationData) Domain() Domain { return DomainTranslation }
func (d *TranslationData) GetMeta() Meta  { return d.meta }
func (d *TranslationData) SetMeta(m Meta) { d.meta = m }
func (d *TranslationData) Clone() Record {
	c := *d
	if d.Translations != nil {
		c.Translations = make(map[string]string, len(d.Translations))
		for k, v := range d.Translations {
			c.Translations[k] = v
		}
	}
	c.meta = d.meta.Clone()
	return &c
}

// ClassificationData: 文本 + 标签。
type ClassificationData struct {
	Text  string
	Label string

	meta Meta
}

func (d *ClassificationData) Domain() Domain { return DomainClassification }
func (d *ClassificationData) GetMeta() Meta  { return d.meta }
func (d *ClassificationData) SetMeta(m Meta) { d.meta = m }
func (d *ClassificationData) Clone() Record {
	c := *d
	c.meta = d.meta.Clone()
	return &c
}

// EnsureMeta 返回记录的元数据，必要时初始化并挂回记录。
func EnsureMeta(r Record) Meta {
	m := r.GetMeta()
	if m == nil {
		m = Meta{}
		r.SetMeta(m)
	}
	return m
}

// Compatible: 两个能力集合是否存在交集。DomainAny 与任意领域相容。
// 执行器在流水线构造期逐跳调用；空集视为不相容。
func Compatible(out, in []Domain) bool {
	if len(out) == 0 || len(in) == 0 {
		return false
	}
	for _, o := range out {
		if o == DomainAny {
			return true
		}
		for _, i := range in {
			if i == DomainAny || i == o {
				return true
			}
		}
	}
	return false
}
