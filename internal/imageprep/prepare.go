package imageprep

// Prepared: результат полного цикла подготовки.
type Prepared struct {
	Blob     *Blob
	Format   Format
	Original Dimensions
}

// Preparer объединяет проверку, контроль качества и сжатие.
type Preparer struct {
	limits   Limits
	compress CompressOptions
}

// NewPreparer создаёт подготовщик с заданными потолками и параметрами сжатия.
func NewPreparer(limits Limits, opts CompressOptions) *Preparer {
	if limits.MaxGeneralBytes <= 0 {
		limits.MaxGeneralBytes = MaxGeneralUploadBytes
	}
	if limits.MaxWizardBytes <= 0 {
		limits.MaxWizardBytes = MaxWizardUploadBytes
	}
	return &Preparer{limits: limits, compress: opts.withDefaults()}
}

// Limits возвращает действующие потолки.
func (p *Preparer) Limits() Limits {
	return p.limits
}

// Prepare выполняет validate → checkQuality (если requireQuality) → compress.
// Любая ошибка завершает попытку загрузки, частичный результат не возвращается.
func (p *Preparer) Prepare(data []byte, scope Scope, requireQuality bool) (*Prepared, error) {
	format, err := Validate(data, p.limits.MaxBytes(scope))
	if err != nil {
		return nil, err
	}

	var dims Dimensions
	if requireQuality {
		if dims, err = CheckQuality(data); err != nil {
			return nil, err
		}
	} else if dims, err = readDimensions(format, data); err != nil {
		return nil, err
	}

	blob, err := Compress(data, p.compress)
	if err != nil {
		return nil, err
	}

	return &Prepared{Blob: blob, Format: format, Original: dims}, nil
}
